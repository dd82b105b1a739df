package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/daylog/core/internal/platform"
)

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Authenticate resolves the user behind cred via GoTrue. Any rejection,
// including a missing credential, is platform.ErrUnauthorized.
func (c *Client) Authenticate(ctx context.Context, cred platform.Credential) (platform.Caller, error) {
	if cred.Token() == "" {
		return platform.Caller{}, platform.ErrUnauthorized
	}

	resp, err := c.request(ctx, cred).Get("/auth/v1/user")
	if err != nil {
		return platform.Caller{}, transportError("auth request", err)
	}
	if resp.IsError() {
		return platform.Caller{}, fmt.Errorf("%w: %s", platform.ErrUnauthorized, decodeError(resp).Error())
	}

	var user authUser
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return platform.Caller{}, fmt.Errorf("decode auth user: %w", err)
	}
	if user.ID == "" {
		return platform.Caller{}, platform.ErrUnauthorized
	}
	return platform.Caller{UserID: user.ID, Credential: cred}, nil
}
