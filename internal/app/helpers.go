package app

import (
	"errors"
	"fmt"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/database"
	"github.com/daylog/core/internal/platform"
	"github.com/daylog/core/internal/platform/s3blob"
	"github.com/daylog/core/internal/platform/sqlstore"
	"github.com/daylog/core/internal/platform/supabase"
	"github.com/daylog/core/internal/pkg/jwt"
	"go.uber.org/zap"
)

// wireBackend selects the data service. Incomplete configuration is not
// fatal: the journal endpoints report it per request instead.
func (a *App) wireBackend() (platform.Backend, error) {
	if err := a.cfg.DataServiceReady(); err != nil {
		a.logger.Warn("data service not configured, journal endpoints will answer 500", zap.Error(err))
		return platform.Unavailable{Err: err}, nil
	}

	switch a.cfg.Data.Driver {
	case config.DriverMySQL:
		db, err := database.Connect(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.closers = append(a.closers, func() error { return database.Close(db) })

		verifier, err := jwt.NewVerifier(a.cfg.Supabase.JWTSecret)
		if err != nil {
			return nil, err
		}
		store := sqlstore.New(db, verifier, sqlstore.Tables{
			Upsert:  a.cfg.Data.UpsertTable,
			Stories: a.cfg.Data.StoriesTable,
		})
		a.pingers["database"] = store
		a.logger.Info("data service", zap.String("driver", config.DriverMySQL))
		return store, nil

	default:
		a.logger.Info("data service", zap.String("driver", config.DriverSupabase))
		return a.supabaseClient(), nil
	}
}

func (a *App) wireBlobStore() (platform.BlobStore, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverS3:
		store, err := s3blob.New(a.cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		return store, nil

	default:
		if a.cfg.Supabase.URL == "" || a.cfg.Supabase.AnonKey == "" {
			return platform.Unavailable{Err: errors.New("Missing Supabase envs")}, nil
		}
		return a.supabaseClient(), nil
	}
}

// supabaseClient shares one client between the data and storage roles.
func (a *App) supabaseClient() *supabase.Client {
	if a.sb == nil {
		a.sb = supabase.New(a.cfg.Supabase, supabase.Tables{
			Upsert:  a.cfg.Data.UpsertTable,
			Stories: a.cfg.Data.StoriesTable,
		})
	}
	return a.sb
}
