// Package sqlstore is the self-hosted data service: entries and stories live
// in MySQL and callers are identified by verifying their access token
// locally. Writes on behalf of another user are refused the way row-level
// security would refuse them.
package sqlstore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/daylog/core/internal/models"
	"github.com/daylog/core/internal/pkg/jwt"
	"github.com/daylog/core/internal/platform"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const codeInsufficientPrivilege = "42501"

// Tables names the tables the store writes to.
type Tables struct {
	Upsert  string
	Stories string
}

// Store implements platform.Backend on gorm.
type Store struct {
	db       *gorm.DB
	verifier *jwt.Verifier
	tables   Tables
}

var _ platform.Backend = (*Store)(nil)

func New(db *gorm.DB, verifier *jwt.Verifier, tables Tables) *Store {
	return &Store{db: db, verifier: verifier, tables: tables}
}

func (s *Store) Authenticate(_ context.Context, cred platform.Credential) (platform.Caller, error) {
	token := cred.Token()
	if token == "" {
		return platform.Caller{}, platform.ErrUnauthorized
	}
	claims, err := s.verifier.Parse(token)
	if err != nil {
		return platform.Caller{}, fmt.Errorf("%w: %v", platform.ErrUnauthorized, err)
	}
	return platform.Caller{UserID: claims.Subject, Credential: cred}, nil
}

func (s *Store) UpsertEntry(ctx context.Context, cred platform.Credential, entry models.Entry) (*models.Entry, error) {
	caller, err := s.Authenticate(ctx, cred)
	if err != nil {
		return nil, &platform.Error{Status: http.StatusUnauthorized, Message: err.Error()}
	}
	if entry.UserID != caller.UserID {
		return nil, policyDenied(s.tables.Upsert)
	}

	row := entry
	err = s.db.WithContext(ctx).Table(s.tables.Upsert).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "mood", "source", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}

	var stored models.Entry
	if err := s.db.WithContext(ctx).Table(s.tables.Upsert).
		Where("user_id = ? AND day = ?", row.UserID, row.Day).
		Take(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload entry: %w", err)
	}
	return &stored, nil
}

func (s *Store) ListEntries(ctx context.Context, caller platform.Caller, q platform.EntryQuery) ([]platform.DayNote, error) {
	tx := s.db.WithContext(ctx).Table(q.Table)

	if q.Schema() == platform.SchemaOneLiners {
		var rows []models.OneLiner
		err := tx.Select("date_key", "content").
			Where("user_id = ? AND date_key BETWEEN ? AND ?", caller.UserID, q.From, q.To).
			Order("date_key ASC").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		notes := make([]platform.DayNote, 0, len(rows))
		for _, r := range rows {
			notes = append(notes, platform.DayNote{Day: r.DateKey, Text: r.Content})
		}
		return notes, nil
	}

	var rows []models.Entry
	err := tx.Select("day", "text").
		Where("user_id = ? AND day BETWEEN ? AND ?", caller.UserID, q.From, q.To).
		Order("day ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	notes := make([]platform.DayNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, platform.DayNote{Day: r.Day, Text: r.Text})
	}
	return notes, nil
}

func (s *Store) InsertStory(ctx context.Context, caller platform.Caller, story models.Story) error {
	if story.UserID != caller.UserID {
		return policyDenied(s.tables.Stories)
	}
	return s.db.WithContext(ctx).Table(s.tables.Stories).Create(&story).Error
}

// Ping checks the connection for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func policyDenied(table string) *platform.Error {
	return &platform.Error{
		Status:  http.StatusForbidden,
		Code:    codeInsufficientPrivilege,
		Message: fmt.Sprintf("new row violates row-level security policy for table %q", table),
	}
}
