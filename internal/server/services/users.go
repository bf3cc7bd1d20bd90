// Package services contains server-side business logic. UserService handles
// accounts, sessions and password recovery; DataService serves the entity
// tables.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/cryptox"
	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/server/auth"
	"github.com/dmitrijs2005/taskmark/internal/server/config"
	smodels "github.com/dmitrijs2005/taskmark/internal/server/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/repomanager"
	"github.com/jmoiron/sqlx"
)

// UserService provides authentication-related operations:
//   - SignUp / SignIn: create or verify accounts and mint sessions
//   - RefreshToken: rotate refresh tokens and mint new access tokens
//   - ResetPasswordForEmail / VerifyRecovery: the password recovery flow
type UserService struct {
	db                            *sqlx.DB
	repomanager                   repomanager.RepositoryManager
	logger                        logging.Logger
	jwtSecret                     []byte
	accessTokenValidityDuration   time.Duration
	refreshTokenValidityDuration  time.Duration
	recoveryTokenValidityDuration time.Duration

	// dummyHash is verified when the email is unknown so that both paths
	// cost one argon2 derivation.
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sqlx.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	seed, _ := common.MakeRandHexString(16)
	dummy, _ := cryptox.HashPassword(seed)
	return &UserService{
		db:                            db,
		repomanager:                   m,
		logger:                        logger.With("module", "users"),
		jwtSecret:                     []byte(cfg.SecretKey),
		accessTokenValidityDuration:   cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration:  cfg.RefreshTokenValidityDuration,
		recoveryTokenValidityDuration: cfg.RecoveryTokenValidityDuration,
		dummyHash:                     dummy,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", common.ErrInvalidPayload)
	}
	return email, nil
}

func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < models.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrInvalidPayload, models.MinPasswordLength)
	}
	return nil
}

func checkDisplayName(name string) error {
	if utf8.RuneCountInString(name) > models.MaxDisplayName {
		return fmt.Errorf("%w: display name must be at most %d characters", common.ErrInvalidPayload, models.MaxDisplayName)
	}
	return nil
}

// SignUp creates an account and signs it in. A taken email yields
// common.ErrAlreadyExists.
func (s *UserService) SignUp(ctx context.Context, email, password, displayName string) (*models.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if err := checkDisplayName(displayName); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var session *models.Session
	err = dbx.WithTxx(ctx, s.db, nil, func(ctx context.Context, tx dbx.Queryer) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &smodels.User{
			Email:        email,
			DisplayName:  displayName,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", session.User.ID)
	return session, nil
}

// SignIn verifies credentials. Unknown emails and wrong passwords both yield
// common.ErrInvalidCredentials.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.newSession(ctx, s.db, user)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	var pair *models.TokenPair
	if err := dbx.WithTxx(ctx, s.db, nil, func(ctx context.Context, tx dbx.Queryer) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, tx, user)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// SignOut revokes refreshToken, or every refresh token of the user when it is
// empty.
func (s *UserService) SignOut(ctx context.Context, userID, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if refreshToken == "" {
		return repo.DeleteForUser(ctx, userID)
	}
	return repo.Delete(ctx, refreshToken)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	u := user.Public()
	return &u, nil
}

// UpdateUser changes the display name and/or the password.
func (s *UserService) UpdateUser(ctx context.Context, userID string, displayName, password *string) (*models.User, error) {
	var patch smodels.UserPatch

	if displayName != nil {
		name := strings.TrimSpace(*displayName)
		if err := checkDisplayName(name); err != nil {
			return nil, err
		}
		patch.DisplayName = &name
	}
	if password != nil {
		if err := checkPassword(*password); err != nil {
			return nil, err
		}
		hash, err := cryptox.HashPassword(*password)
		if err != nil {
			return nil, common.ErrorInternal
		}
		patch.PasswordHash = &hash
	}

	user, err := s.repomanager.Users(s.db).Update(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	u := user.Public()
	return &u, nil
}

// ResetPasswordForEmail issues a recovery token. There is no mailer, so the
// token is written to the log. Unknown emails succeed silently.
func (s *UserService) ResetPasswordForEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset for unknown email")
			return nil
		}
		return err
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repomanager.RecoveryTokens(s.db).Create(ctx, user.ID, token, s.recoveryTokenValidityDuration); err != nil {
		return err
	}

	s.logger.Info(ctx, "password recovery token issued", "email", user.Email, "token", token)
	return nil
}

// VerifyRecovery consumes a recovery token and signs its owner in.
func (s *UserService) VerifyRecovery(ctx context.Context, token string) (*models.Session, error) {
	var session *models.Session
	err := dbx.WithTxx(ctx, s.db, nil, func(ctx context.Context, tx dbx.Queryer) error {
		rt, err := s.repomanager.RecoveryTokens(tx).Consume(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRecoveryTokenInvalid
			}
			return err
		}
		if rt.ExpiresAt.Before(time.Now()) {
			return common.ErrRecoveryTokenInvalid
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, rt.UserID)
		if err != nil {
			return err
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UserIDFromToken validates an access token.
func (s *UserService) UserIDFromToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// --- helpers below ---

func (s *UserService) newSession(ctx context.Context, tx dbx.Queryer, user *smodels.User) (*models.Session, error) {
	pair, err := s.generateTokenPair(ctx, tx, user)
	if err != nil {
		return nil, err
	}
	return &models.Session{TokenPair: *pair, User: user.Public()}, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, tx dbx.Queryer, user *smodels.User) (*models.TokenPair, error) {
	access, expiresAt, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}
