// Package sqlutil provides nullable-field conversions between Go pointer
// types and database/sql Null* types for the repository layer.
package sqlutil

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ToNullString converts a possibly-nil string pointer to sql.NullString.
func ToNullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// ToNullStringValue converts an empty-means-absent string to sql.NullString.
func ToNullStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// FromNullString converts sql.NullString back to a string pointer, nil if invalid.
func FromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

// ToNullUUID converts a possibly-nil UUID pointer to sql.NullString (uuid text form).
func ToNullUUID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

// FromNullUUID parses a nullable uuid text column back to a *uuid.UUID.
func FromNullUUID(n sql.NullString) (*uuid.UUID, error) {
	if !n.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(n.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ToNullTime converts a possibly-nil time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// FromNullTime converts sql.NullTime back to a time pointer, nil if invalid.
func FromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

// ToNullInt64 converts a possibly-nil int64 pointer to sql.NullInt64.
func ToNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
