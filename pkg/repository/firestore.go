package repository

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/model"
	"google.golang.org/api/iterator"
)

const (
	collectionProfiles   = "profiles"
	collectionTemplates  = "templates"
	collectionSentEmails = "sent_emails"
	docUserProfile       = "settings/user_profile"
)

// firestoreStore implements RecordStore using Firestore
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed record store
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.RecordStore, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &firestoreStore{
		client: client,
	}, nil
}

func (r *firestoreStore) GetAllProfiles(ctx context.Context) ([]model.Profile, error) {
	iter := r.client.Collection(collectionProfiles).Documents(ctx)
	defer iter.Stop()

	var profiles []model.Profile
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate profiles")
		}

		var profile model.Profile
		if err := doc.DataTo(&profile); err != nil {
			return nil, goerr.Wrap(err, "failed to decode profile", goerr.V("doc", doc.Ref.ID))
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (r *firestoreStore) GetAllTemplates(ctx context.Context) ([]model.Template, error) {
	iter := r.client.Collection(collectionTemplates).Documents(ctx)
	defer iter.Stop()

	var templates []model.Template
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate templates")
		}

		var template model.Template
		if err := doc.DataTo(&template); err != nil {
			return nil, goerr.Wrap(err, "failed to decode template", goerr.V("doc", doc.Ref.ID))
		}
		templates = append(templates, template)
	}
	return templates, nil
}

func (r *firestoreStore) GetAllSentEmails(ctx context.Context) ([]model.SentEmail, error) {
	iter := r.client.Collection(collectionSentEmails).
		OrderBy("sent_date", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var emails []model.SentEmail
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sent emails")
		}

		var email model.SentEmail
		if err := doc.DataTo(&email); err != nil {
			return nil, goerr.Wrap(err, "failed to decode sent email", goerr.V("doc", doc.Ref.ID))
		}
		email.ID = doc.Ref.ID
		emails = append(emails, email)
	}
	return emails, nil
}

func (r *firestoreStore) GetUserProfile(ctx context.Context) (*model.UserProfile, error) {
	snap, err := r.client.Doc(docUserProfile).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user profile")
	}

	var profile model.UserProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user profile")
	}
	return &profile, nil
}

// SearchSentEmails scans the collection and substring-matches subject,
// body, and recipients case-insensitively. Firestore has no substring
// operator, so the scan happens client-side.
func (r *firestoreStore) SearchSentEmails(ctx context.Context, pattern string) ([]model.SentEmail, error) {
	emails, err := r.GetAllSentEmails(ctx)
	if err != nil {
		return nil, err
	}
	return filterSentEmails(emails, pattern), nil
}

// filterSentEmails keeps emails whose subject, body, or recipient list
// contains the pattern, ignoring case. An empty pattern matches all.
func filterSentEmails(emails []model.SentEmail, pattern string) []model.SentEmail {
	needle := strings.ToLower(strings.TrimSpace(pattern))
	if needle == "" {
		return emails
	}

	var matched []model.SentEmail
	for _, email := range emails {
		haystack := strings.ToLower(email.Subject + " " + email.Body + " " + strings.Join(email.Recipients, ", "))
		if strings.Contains(haystack, needle) {
			matched = append(matched, email)
		}
	}
	return matched
}
