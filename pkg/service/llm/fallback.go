package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/model"
)

// fallbackNameLimit bounds how many template/contact names a canned
// answer lists
const fallbackNameLimit = 8

// Fallback returns deterministic help text when no model text is
// available. Keyword groups are evaluated in a fixed priority order;
// record-store failures degrade to the empty-collection answers.
func Fallback(ctx context.Context, store interfaces.RecordStore, prompt string) string {
	lowered := strings.ToLower(prompt)

	if containsAny(lowered, "hello", "hi", "hey", "greetings") {
		return "Hello! How can I help you with your emails today?"
	}

	if containsAny(lowered, "template", "templates") {
		templates, err := store.GetAllTemplates(ctx)
		if err != nil || len(templates) == 0 {
			return "You do not have any templates yet. Add one on the Email Templates page."
		}
		return fmt.Sprintf("You currently have %d template(s): %s.",
			len(templates), joinNames(templateNames(templates)))
	}

	if containsAny(lowered, "recipient", "recipients", "contact", "contacts") {
		profiles, err := store.GetAllProfiles(ctx)
		if err != nil || len(profiles) == 0 {
			return "You do not have any recipients yet. Add contacts on the Profiles page."
		}
		return fmt.Sprintf("You currently have %d contact(s): %s.",
			len(profiles), joinNames(profileNames(profiles)))
	}

	if containsAny(lowered, "send", "schedule", "reminder") {
		return "Use the Send Emails page to send now, schedule messages, or create reminders."
	}

	return "I can help with drafting emails, templates, and recipients. " +
		"If you want AI answers, set OPENAI_API_KEY (and optional OPENAI_MODEL) in your .env file."
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func templateNames(templates []model.Template) []string {
	names := make([]string, 0, len(templates))
	for _, t := range templates {
		names = append(names, t.Name)
	}
	return names
}

func profileNames(profiles []model.Profile) []string {
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return names
}

func joinNames(names []string) string {
	if len(names) > fallbackNameLimit {
		names = names[:fallbackNameLimit]
	}
	return strings.Join(names, ", ")
}
