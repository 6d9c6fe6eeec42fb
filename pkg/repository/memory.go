package repository

import (
	"context"
	"sync"

	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/model"
)

// MemoryStore is an in-memory RecordStore used by tests and when no
// Firestore project is configured
type MemoryStore struct {
	mu          sync.RWMutex
	profiles    []model.Profile
	templates   []model.Template
	sentEmails  []model.SentEmail
	userProfile *model.UserProfile
}

var _ interfaces.RecordStore = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory record store
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// SetProfiles replaces all profiles
func (r *MemoryStore) SetProfiles(profiles []model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = profiles
}

// SetTemplates replaces all templates
func (r *MemoryStore) SetTemplates(templates []model.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = templates
}

// SetSentEmails replaces all sent emails; callers supply them oldest first
func (r *MemoryStore) SetSentEmails(emails []model.SentEmail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sentEmails = emails
}

// SetUserProfile replaces the owner's profile; nil clears it
func (r *MemoryStore) SetUserProfile(profile *model.UserProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userProfile = profile
}

func (r *MemoryStore) GetAllProfiles(ctx context.Context) ([]model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Profile(nil), r.profiles...), nil
}

func (r *MemoryStore) GetAllTemplates(ctx context.Context) ([]model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Template(nil), r.templates...), nil
}

func (r *MemoryStore) GetAllSentEmails(ctx context.Context) ([]model.SentEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.SentEmail(nil), r.sentEmails...), nil
}

func (r *MemoryStore) GetUserProfile(ctx context.Context) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.userProfile == nil {
		return nil, nil
	}
	profile := *r.userProfile
	return &profile, nil
}

func (r *MemoryStore) SearchSentEmails(ctx context.Context, pattern string) ([]model.SentEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filterSentEmails(append([]model.SentEmail(nil), r.sentEmails...), pattern), nil
}
