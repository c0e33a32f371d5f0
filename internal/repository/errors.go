package repository

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"legalport/internal/domain"
)

const (
	codeInsufficientPrivilege = "42501"
	codeUniqueViolation       = "23505"
	codeTooManyConnections    = "53300"
	codeAdminShutdown         = "57P01"
	codeCannotConnectNow      = "57P03"
)

// wrapErr maps driver errors onto the domain taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return &domain.PersistenceError{Op: op, Kind: classify(err), Err: err}
}

func stepErr(step domain.ProvisioningStep, err error) error {
	return &domain.PersistenceError{Op: "provision chat", Step: step, Kind: classify(err), Err: err}
}

func classify(err error) domain.PersistenceKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeInsufficientPrivilege:
			return domain.PersistenceKindPermissionDenied
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == codeTooManyConnections,
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeCannotConnectNow:
			return domain.PersistenceKindUnavailable
		}
		return domain.PersistenceKindUnknown
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err):
		return domain.PersistenceKindUnavailable
	}

	return domain.PersistenceKindUnknown
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
