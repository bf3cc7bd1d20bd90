package rpc

import (
	"encoding/json"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateUserRequest changes only the non-nil fields.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Password    *string `json:"password,omitempty"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyRecoveryRequest struct {
	Token string `json:"token"`
}

type UserResponse struct {
	User models.User `json:"user"`
}

// SelectRequest reads every row of Table owned by the caller.
type SelectRequest struct {
	Table string       `json:"table"`
	Query models.Query `json:"query"`
}

type SelectResponse struct {
	Rows json.RawMessage `json:"rows"`
}

type InsertRequest struct {
	Table string          `json:"table"`
	Row   json.RawMessage `json:"row"`
}

type UpdateRequest struct {
	Table string          `json:"table"`
	ID    string          `json:"id"`
	Patch json.RawMessage `json:"patch"`
}

type DeleteRequest struct {
	Table string `json:"table"`
	ID    string `json:"id"`
}

type RowResponse struct {
	Row json.RawMessage `json:"row"`
}

type PingResponse struct {
	Status string `json:"status"`
}
