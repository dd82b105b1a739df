package entry

import (
	"context"
	"net/http"
	"time"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/models"
	"github.com/daylog/core/internal/platform"
	"github.com/daylog/core/internal/pkg/response"
)

type Service struct {
	cfg   *config.AppConfig
	store platform.EntryWriter
	now   func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg *config.AppConfig, store platform.EntryWriter, opts ...Option) *Service {
	s := &Service{cfg: cfg, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports missing data-service configuration.
func (s *Service) Ready() error {
	return s.cfg.DataServiceReady()
}

// Upsert writes the entry as the credential holder. Every field of an
// existing (user_id, day) row is replaced and updated_at is refreshed.
func (s *Service) Upsert(ctx context.Context, cred platform.Credential, in UpsertInput) (*models.Entry, error) {
	row := models.Entry{
		UserID:    in.UserID,
		Day:       models.Date(in.Day),
		Text:      in.Text,
		Mood:      in.Mood,
		Source:    in.Source,
		UpdatedAt: s.now().UTC(),
	}

	stored, err := s.store.UpsertEntry(ctx, cred, row)
	if err != nil {
		return nil, response.NewError(http.StatusBadRequest, err.Error())
	}
	return stored, nil
}
