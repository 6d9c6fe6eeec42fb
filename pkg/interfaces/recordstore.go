package interfaces

import (
	"context"

	"github.com/y-sonoda/quill/pkg/model"
)

// RecordStore is the read-only contract to the application's record
// store. The inference core never writes through it; chunks are rebuilt
// from a fresh snapshot on every retrieval call.
type RecordStore interface {
	// GetAllProfiles returns all saved recipient contacts
	GetAllProfiles(ctx context.Context) ([]model.Profile, error)

	// GetAllTemplates returns all email templates
	GetAllTemplates(ctx context.Context) ([]model.Template, error)

	// GetAllSentEmails returns sent emails ordered oldest first
	GetAllSentEmails(ctx context.Context) ([]model.SentEmail, error)

	// GetUserProfile returns the owner's profile, or nil when unset
	GetUserProfile(ctx context.Context) (*model.UserProfile, error)

	// SearchSentEmails returns sent emails whose subject, body, or
	// recipients contain the pattern (case-insensitive substring match)
	SearchSentEmails(ctx context.Context, pattern string) ([]model.SentEmail, error)
}
