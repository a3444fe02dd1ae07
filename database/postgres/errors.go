package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sagarc03/mediagate"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapConstraint translates constraint violations into domain errors.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%w: %s", mediagate.ErrConflict, pgErr.ConstraintName)
	case foreignKeyViolation:
		return fmt.Errorf("%w: referenced record does not exist", mediagate.ErrInvalidInput)
	default:
		return err
	}
}
