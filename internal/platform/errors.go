package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/daylog/core/internal/models"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// CodeUniqueViolation is the Postgres unique_violation SQLSTATE.
const CodeUniqueViolation = "23505"

const mysqlDuplicateEntry = 1062

// ErrUnauthorized is returned when a credential does not resolve to a user.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a failure reported by the data or storage service.
type Error struct {
	Status  int    // HTTP status of the upstream response, 0 if none
	Code    string // service error code, e.g. a SQLSTATE
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("request failed with code %s", e.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == CodeUniqueViolation
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Unavailable stands in for a backend whose configuration is incomplete.
// Every call fails with Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) Authenticate(context.Context, Credential) (Caller, error) {
	return Caller{}, u.Err
}

func (u Unavailable) UpsertEntry(context.Context, Credential, models.Entry) (*models.Entry, error) {
	return nil, u.Err
}

func (u Unavailable) ListEntries(context.Context, Caller, EntryQuery) ([]DayNote, error) {
	return nil, u.Err
}

func (u Unavailable) InsertStory(context.Context, Caller, models.Story) error {
	return u.Err
}

func (u Unavailable) Upload(context.Context, Caller, Object) error {
	return u.Err
}
