// Package platform defines the identity-aware data and storage services the
// journal handlers depend on. Backends live in the subpackages.
package platform

import (
	"context"
	"strings"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/models"
)

// Credential is the caller's Authorization header value, forwarded to the
// data service unchanged so access control is evaluated as the caller.
type Credential string

// Token returns the bare bearer token without the scheme prefix.
func (c Credential) Token() string {
	token := strings.TrimSpace(string(c))
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Caller is a verified identity together with the credential it was
// resolved from. It is obtained once per request and threaded through every
// data-service call.
type Caller struct {
	UserID     string
	Credential Credential
}

// DayNote is one entry as fed into a story digest.
type DayNote struct {
	Day  models.Date
	Text string
}

// EntrySchema identifies how an entries table is laid out.
type EntrySchema int

const (
	// SchemaGeneric is a table keyed by explicit user_id + day with a text column.
	SchemaGeneric EntrySchema = iota
	// SchemaOneLiners is the date_key/content table scoped to the caller by
	// row-level access control.
	SchemaOneLiners
)

// EntryQuery selects the inclusive day range [From, To] of one entries table.
type EntryQuery struct {
	Table string
	From  models.Date
	To    models.Date
}

// Schema resolves the layout strategy from the table name.
func (q EntryQuery) Schema() EntrySchema {
	if q.Table == config.OneLinersTable {
		return SchemaOneLiners
	}
	return SchemaGeneric
}

// Object is a document to be written to blob storage.
type Object struct {
	Bucket      string
	Path        string
	ContentType string
	Body        []byte
}

// Authenticator resolves the identity behind a forwarded credential.
type Authenticator interface {
	Authenticate(ctx context.Context, cred Credential) (Caller, error)
}

// EntryWriter upserts one entry keyed by (user_id, day) and returns the stored row.
type EntryWriter interface {
	UpsertEntry(ctx context.Context, cred Credential, entry models.Entry) (*models.Entry, error)
}

// EntryReader returns the caller's entries in ascending day order.
type EntryReader interface {
	ListEntries(ctx context.Context, caller Caller, q EntryQuery) ([]DayNote, error)
}

// StoryWriter inserts one story metadata row.
type StoryWriter interface {
	InsertStory(ctx context.Context, caller Caller, story models.Story) error
}

// BlobStore writes a document, overwriting any existing object at the path.
type BlobStore interface {
	Upload(ctx context.Context, caller Caller, obj Object) error
}

// Backend is the full data-service surface.
type Backend interface {
	Authenticator
	EntryWriter
	EntryReader
	StoryWriter
}
