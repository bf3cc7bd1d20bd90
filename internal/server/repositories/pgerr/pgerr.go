// Package pgerr maps Postgres driver errors onto the sentinel errors in
// common so services never inspect SQLSTATE codes themselves.
package pgerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	UniqueViolation      = "23505"
	ForeignKeyViolation  = "23503"
	CheckViolation       = "23514"
	NotNullViolation     = "23502"
	InvalidTextRepresent = "22P02"
)

// Wrap annotates err with op. Known constraint failures are rewrapped as
// common.ErrAlreadyExists or common.ErrConstraint and sql.ErrNoRows becomes
// common.ErrorNotFound. Anything else is reported as a db error.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case UniqueViolation:
			return fmt.Errorf("%s: %w", op, common.ErrAlreadyExists)
		case ForeignKeyViolation, CheckViolation, NotNullViolation:
			return fmt.Errorf("%s: %w: %s", op, common.ErrConstraint, pgErr.ConstraintName)
		case InvalidTextRepresent:
			return fmt.Errorf("%s: %w", op, common.ErrInvalidPayload)
		}
	}

	return fmt.Errorf("%s: db error: %w", op, err)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, UniqueViolation)
}

func IsForeignKeyViolation(err error) bool {
	return hasCode(err, ForeignKeyViolation)
}

func IsCheckViolation(err error) bool {
	return hasCode(err, CheckViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
