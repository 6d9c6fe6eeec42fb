// Package rag builds ranked retrieval context from application records.
// Chunks are rebuilt from the record store on every request; nothing is
// cached across calls.
package rag

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/service/guardrail"
)

const (
	// DefaultTopK is the default number of chunks returned by Retrieve
	DefaultTopK = 6

	// recentSentEmailLimit bounds how many of the newest sent emails
	// become chunks
	recentSentEmailLimit = 20

	// chunkClipChars bounds the body excerpt embedded in a chunk
	chunkClipChars = 280
)

var tokenRe = regexp.MustCompile(`[a-z0-9_@.\-]+`)

// BuildChunks builds retrievable chunks from profiles, templates, sent
// emails, and the user profile. Email addresses and recipient lists are
// masked before storage.
func BuildChunks(ctx context.Context, store interfaces.RecordStore) ([]model.Chunk, error) {
	profiles, err := store.GetAllProfiles(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profiles")
	}
	templates, err := store.GetAllTemplates(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get templates")
	}
	sentEmails, err := store.GetAllSentEmails(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sent emails")
	}
	userProfile, err := store.GetUserProfile(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user profile")
	}

	var chunks []model.Chunk

	for i, profile := range profiles {
		text := fmt.Sprintf("Profile: %s | Email: %s | Title: %s | Profession: %s",
			orNA(profile.Name),
			guardrail.MaskSensitiveText(orNA(profile.Email)),
			orNA(profile.Title),
			orNA(profile.Profession),
		)
		chunks = append(chunks, model.Chunk{
			ID:          fmt.Sprintf("profile-%d", i+1),
			Text:        text,
			Source:      model.ChunkSourceProfile,
			SourceID:    fmt.Sprintf("%d", i+1),
			Sensitivity: model.SensitivityHigh,
		})
	}

	for i, template := range templates {
		text := fmt.Sprintf("Template: %s | Body: %s",
			orNA(template.Name),
			clip(template.Body, chunkClipChars),
		)
		chunks = append(chunks, model.Chunk{
			ID:          fmt.Sprintf("template-%d", i+1),
			Text:        text,
			Source:      model.ChunkSourceTemplate,
			SourceID:    fmt.Sprintf("%d", i+1),
			Sensitivity: model.SensitivityLow,
		})
	}

	recent := sentEmails
	if len(recent) > recentSentEmailLimit {
		recent = recent[len(recent)-recentSentEmailLimit:]
	}
	for i, email := range recent {
		recipients := strings.Join(email.Recipients, ", ")
		text := fmt.Sprintf("Sent email | Subject: %s | Recipients: %s | Date: %s | Body excerpt: %s",
			orNA(email.Subject),
			guardrail.MaskSensitiveText(recipients),
			orNA(email.SentDate),
			clip(email.Body, chunkClipChars),
		)
		chunks = append(chunks, model.Chunk{
			ID:          fmt.Sprintf("sent-email-%d", i+1),
			Text:        text,
			Source:      model.ChunkSourceSentEmail,
			SourceID:    fmt.Sprintf("%d", i+1),
			Sensitivity: model.SensitivityHigh,
		})
	}

	if userProfile != nil {
		text := fmt.Sprintf("User profile | Name: %s | Title: %s | Profession: %s | Signature: %s",
			orNA(userProfile.Name),
			orNA(userProfile.Title),
			orNA(userProfile.Profession),
			clip(userProfile.Signature, chunkClipChars),
		)
		chunks = append(chunks, model.Chunk{
			ID:          "user-profile-1",
			Text:        text,
			Source:      model.ChunkSourceUserProfile,
			SourceID:    "1",
			Sensitivity: model.SensitivityMedium,
		})
	}

	return chunks, nil
}

// Retrieve ranks chunks by token overlap with the query and returns the
// top-k results. A query with no tokens returns the first k chunks in
// build order. Chunks with zero overlap are excluded; ties keep build
// order. Score is |query ∩ chunk| / sqrt(|chunk tokens|).
func Retrieve(query string, chunks []model.Chunk, topK int) []model.Chunk {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		if len(chunks) > topK {
			return chunks[:topK]
		}
		return chunks
	}

	type scoredChunk struct {
		score float64
		chunk model.Chunk
	}

	var scored []scoredChunk
	for _, chunk := range chunks {
		chunkTokens := tokenize(chunk.Text)
		if len(chunkTokens) == 0 {
			continue
		}

		overlap := 0
		for token := range queryTokens {
			if _, ok := chunkTokens[token]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		scored = append(scored, scoredChunk{
			score: float64(overlap) / math.Sqrt(float64(len(chunkTokens))),
			chunk: chunk,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	results := make([]model.Chunk, 0, len(scored))
	for _, s := range scored {
		results = append(results, s.chunk)
	}
	return results
}

// FormatContext renders selected chunks into a compact context block for
// system messages
func FormatContext(chunks []model.Chunk) string {
	if len(chunks) == 0 {
		return "No relevant records were retrieved from app data."
	}

	lines := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		lines = append(lines, fmt.Sprintf("- [%s#%s | sensitivity=%s] %s",
			chunk.Source, chunk.SourceID, chunk.Sensitivity, chunk.Text))
	}
	return strings.Join(lines, "\n")
}

func tokenize(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		tokens[token] = struct{}{}
	}
	return tokens
}

func clip(text string, maxChars int) string {
	compact := strings.Join(strings.Fields(text), " ")
	runes := []rune(compact)
	if len(runes) <= maxChars {
		return compact
	}
	return string(runes[:maxChars-3]) + "..."
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
