// Package supabase talks to a hosted Supabase project over its REST
// surfaces: GoTrue for identity, PostgREST for tables, Storage for objects.
// Every request carries the project key plus the caller's own credential so
// row-level security is evaluated as the caller.
package supabase

import (
	"context"
	"strings"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/platform"
	"github.com/go-resty/resty/v2"
)

const clientInfo = "daylog-core"

// Tables names the tables the client writes to. Range reads take their
// table from the query.
type Tables struct {
	Upsert  string
	Stories string
}

// Client implements platform.Backend and platform.BlobStore.
type Client struct {
	http   *resty.Client
	tables Tables
}

var (
	_ platform.Backend   = (*Client)(nil)
	_ platform.BlobStore = (*Client)(nil)
)

// New builds a client for the project at cfg.URL. No client-side timeout
// is set; the platform's own limits bound each call.
func New(cfg config.SupabaseConfig, tables Tables) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("X-Client-Info", clientInfo)

	return &Client{http: c, tables: tables}
}

// request starts a call acting as the holder of cred. An empty credential
// leaves the project key as the only identity, i.e. the anonymous role.
func (c *Client) request(ctx context.Context, cred platform.Credential) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if strings.TrimSpace(string(cred)) != "" {
		r.SetHeader("Authorization", string(cred))
	}
	return r
}
