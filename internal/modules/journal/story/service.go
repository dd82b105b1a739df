package story

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/models"
	"github.com/daylog/core/internal/modules/processing/ai"
	"github.com/daylog/core/internal/platform"
	"github.com/daylog/core/internal/pkg/response"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	cfg     *config.AppConfig
	backend platform.Backend
	blobs   platform.BlobStore
	gen     ai.Generator
	logger  *zap.Logger
	newID   func() string
}

type Option func(*Service)

// WithIDGenerator replaces the story id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(cfg *config.AppConfig, backend platform.Backend, blobs platform.BlobStore, gen ai.Generator, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		backend: backend,
		blobs:   blobs,
		gen:     gen,
		logger:  logger,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports missing data-service or generation configuration.
func (s *Service) Ready() error {
	if err := s.cfg.DataServiceReady(); err != nil {
		return err
	}
	return s.cfg.GenerationReady()
}

// Authenticate resolves the caller once for the whole request.
func (s *Service) Authenticate(ctx context.Context, cred platform.Credential) (platform.Caller, error) {
	caller, err := s.backend.Authenticate(ctx, cred)
	if err != nil {
		return platform.Caller{}, err
	}
	if caller.UserID == "" {
		return platform.Caller{}, platform.ErrUnauthorized
	}
	return caller, nil
}

// Compile turns the caller's entries in [in.From, in.To] into a stored
// story. Nothing is written unless generation succeeds, and a story whose
// metadata row already exists counts as compiled.
func (s *Service) Compile(ctx context.Context, caller platform.Caller, in CompileInput) (*CompileResult, error) {
	table := s.cfg.Data.EntriesTable
	notes, err := s.backend.ListEntries(ctx, caller, platform.EntryQuery{Table: table, From: in.From, To: in.To})
	if err != nil {
		return nil, response.Errorf(http.StatusInternalServerError, "Fetch %s failed: %s", table, err.Error())
	}
	if len(notes) == 0 {
		return nil, response.NewError(http.StatusUnprocessableEntity, "No entries in range")
	}

	prompt := ai.BuildStoryPrompt(ai.StoryInput{
		Style:   in.Style,
		Persona: in.Persona,
		From:    in.From.String(),
		To:      in.To.String(),
		Digest:  BuildDigest(notes),
	})
	gen, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, generationError(err)
	}

	markdown := gen.Text
	title := DeriveTitle(in.Title, markdown)
	tokens := gen.TotalTokens()
	storyID := s.newID()
	mdPath := fmt.Sprintf("%s/%s.md", caller.UserID, storyID)

	err = s.blobs.Upload(ctx, caller, platform.Object{
		Bucket:      s.cfg.Storage.Bucket,
		Path:        mdPath,
		ContentType: markdownType,
		Body:        []byte(markdown),
	})
	if err != nil {
		return nil, response.Errorf(http.StatusInternalServerError, "Upload failed: %s", err.Error())
	}

	story := models.Story{
		ID:          storyID,
		UserID:      caller.UserID,
		FromDay:     in.From,
		ToDay:       in.To,
		Title:       title,
		Style:       in.Style,
		Persona:     in.Persona,
		MDPath:      mdPath,
		ContentHash: ContentHash(markdown),
		Tokens:      tokens,
		CostCents:   EstimateCostCents(tokens, s.cfg.Generation.CentsPerToken),
		Status:      models.StoryStatusReady,
	}
	if err := s.backend.InsertStory(ctx, caller, story); err != nil {
		if !platform.IsUniqueViolation(err) {
			return nil, response.Errorf(http.StatusInternalServerError, "Insert story failed: %s", err.Error())
		}
		s.logger.Info("story already recorded",
			zap.String("story_id", storyID),
			zap.String("user_id", caller.UserID),
		)
	}

	return &CompileResult{ID: storyID, Title: title, MDPath: mdPath}, nil
}

func generationError(err error) error {
	var up *ai.UpstreamError
	switch {
	case errors.As(err, &up):
		return response.NewError(http.StatusBadGateway, up.Error())
	case errors.Is(err, ai.ErrEmptyGeneration):
		return response.NewError(http.StatusBadGateway, ai.ErrEmptyGeneration.Error())
	default:
		return response.NewError(http.StatusBadGateway, err.Error())
	}
}
