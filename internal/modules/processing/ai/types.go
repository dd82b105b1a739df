package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyGeneration is returned when the provider answered without text.
var ErrEmptyGeneration = errors.New("Empty generation")

// Prompt is a single system + user exchange.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// Usage is the token accounting a provider reported.
type Usage struct {
	TotalTokens int64
}

// Generation is a provider's answer. Usage is nil when the provider did
// not report token counts.
type Generation struct {
	Text  string
	Usage *Usage
}

// TotalTokens returns the reported total, 0 when absent.
func (g Generation) TotalTokens() int64 {
	if g.Usage == nil {
		return 0
	}
	return g.Usage.TotalTokens
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (Generation, error)
}

// UpstreamError is a failed call to the generation API. Status is 0 when
// no HTTP response was received.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s %d: %s", e.Provider, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
