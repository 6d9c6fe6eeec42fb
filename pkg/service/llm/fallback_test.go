package llm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/y-sonoda/quill/pkg/model"
	"github.com/y-sonoda/quill/pkg/repository"
	"github.com/y-sonoda/quill/pkg/service/llm"
)

func TestFallbackGreeting(t *testing.T) {
	store := repository.NewMemory()

	for _, prompt := range []string{"hello", "Hi there", "Hey!", "Greetings, assistant"} {
		answer := llm.Fallback(context.Background(), store, prompt)
		gt.V(t, answer).Equal("Hello! How can I help you with your emails today?")
	}
}

func TestFallbackTemplates(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		answer := llm.Fallback(ctx, repository.NewMemory(), "What templates do I have?")
		gt.V(t, answer).Equal("You do not have any templates yet. Add one on the Email Templates page.")
	})

	t.Run("lists names", func(t *testing.T) {
		store := repository.NewMemory()
		store.SetTemplates([]model.Template{
			{Name: "Weekly Update"},
			{Name: "Invoice Reminder"},
		})

		answer := llm.Fallback(ctx, store, "show my template list")
		gt.V(t, answer).Equal("You currently have 2 template(s): Weekly Update, Invoice Reminder.")
	})

	t.Run("caps listed names", func(t *testing.T) {
		store := repository.NewMemory()
		var templates []model.Template
		for i := 0; i < 12; i++ {
			templates = append(templates, model.Template{Name: fmt.Sprintf("T%d", i)})
		}
		store.SetTemplates(templates)

		answer := llm.Fallback(ctx, store, "templates?")
		gt.S(t, answer).Contains("You currently have 12 template(s):")
		gt.S(t, answer).Contains("T7")
		gt.S(t, answer).NotContains("T8")
	})
}

func TestFallbackContacts(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		answer := llm.Fallback(ctx, repository.NewMemory(), "who are my contacts?")
		gt.V(t, answer).Equal("You do not have any recipients yet. Add contacts on the Profiles page.")
	})

	t.Run("lists names", func(t *testing.T) {
		store := repository.NewMemory()
		store.SetProfiles([]model.Profile{
			{Name: "Alice Benson"},
			{Name: "Bob Carver"},
		})

		answer := llm.Fallback(ctx, store, "list recipients")
		gt.V(t, answer).Equal("You currently have 2 contact(s): Alice Benson, Bob Carver.")
	})
}

func TestFallbackPriorityOrder(t *testing.T) {
	store := repository.NewMemory()
	store.SetTemplates([]model.Template{{Name: "Weekly Update"}})

	// Greeting wins over templates, templates win over contacts,
	// contacts win over send/schedule
	gt.S(t, llm.Fallback(context.Background(), store, "hello, any templates?")).
		Contains("Hello!")
	gt.S(t, llm.Fallback(context.Background(), store, "templates for my contacts")).
		Contains("template(s)")
	gt.S(t, llm.Fallback(context.Background(), store, "contacts to send to")).
		Contains("recipients")
}

func TestFallbackSendHint(t *testing.T) {
	answer := llm.Fallback(context.Background(), repository.NewMemory(), "how do I schedule a message?")
	gt.V(t, answer).Equal("Use the Send Emails page to send now, schedule messages, or create reminders.")
}

func TestFallbackDefault(t *testing.T) {
	answer := llm.Fallback(context.Background(), repository.NewMemory(), "what is the weather?")
	gt.S(t, answer).Contains("I can help with drafting emails")
	gt.S(t, answer).Contains("OPENAI_API_KEY")
}
