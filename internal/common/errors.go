package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrConstraint     = errors.New("constraint violation")
	ErrUnknownTable   = errors.New("unknown table")
	ErrInvalidPayload = errors.New("invalid payload")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials   = errors.New("invalid login credentials")
	ErrRecoveryTokenInvalid = errors.New("recovery token is invalid or has expired")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
