package repository

import (
	"errors"
	"strings"

	"grapes/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// violatesColumn reports whether a unique violation names column or its index.
func violatesColumn(err error, table, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName == "idx_"+table+"_"+column ||
			strings.Contains(pgErr.Detail, "("+column+")")
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, table+"."+column) || strings.Contains(msg, "idx_"+table+"_"+column)
}

// lookupError maps a miss to (nil, nil) for optional lookups.
func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return models.NewInternalError(err)
}

// byIDError maps a miss to NotFound for loads addressed by primary key.
func byIDError(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
