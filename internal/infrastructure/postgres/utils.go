package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
)

// SQLSTATE relevantes para el motor de stock.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify envuelve err con op y lo traduce a un error de dominio cuando corresponde:
// unicidad, serialización y deadlock → domain.ErrConflict; conexión caída o error de red
// antes de enviar la consulta → domain.ErrStoreUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch code := pgCode(err); {
	case code == codeUniqueViolation, code == codeSerializationFailure, code == codeDeadlockDetected:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
	case code == codeCheckViolation:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	case strings.HasPrefix(code, "08"), code == "57P01", code == "57P03":
		// clase 08 (connection exception), admin_shutdown, cannot_connect_now
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	case code != "":
		return fmt.Errorf("%s: %w", op, err)
	}
	var netErr net.Error
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
