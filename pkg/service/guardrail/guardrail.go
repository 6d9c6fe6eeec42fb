// Package guardrail implements input/output safety checks for chatbot
// requests and model responses: prompt sanitization, action-intent
// detection before a provider call, and completion-claim detection plus
// sensitive-data redaction after it.
package guardrail

import (
	"regexp"
	"strings"

	"github.com/y-sonoda/quill/pkg/model"
)

// ActionGuardrailMessage is returned whenever the user asks for action
// execution or a model falsely claims one happened. Both checks must
// produce the identical string.
const ActionGuardrailMessage = "I can draft and improve emails here, but I cannot execute actions directly. " +
	"Please review and confirm actions on the Send Emails, Schedules, or Reminders pages."

const maxPromptChars = 1200

// actionPatterns are evaluated in order against the lowercased prompt.
// They only apply after the informational-prefix allow-list has passed.
var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(please\s+)?(send|schedule|delete|remove|cancel)\b`),
	regexp.MustCompile(`\b(send|schedule|delete|remove|cancel)\b.*\b(now|right now|for me|immediately)\b`),
	regexp.MustCompile(`\b(send|schedule|delete|remove|cancel)\s+(this|that|it|email)\b`),
	regexp.MustCompile(`\b(create|set)\s+reminder\b`),
}

// infoQueryPrefixes never trigger the action guardrail, even when the
// prompt later contains an action verb ("What did I send yesterday?").
var infoQueryPrefixes = []string{
	"what",
	"which",
	"who",
	"when",
	"where",
	"why",
	"how",
	"list",
	"show",
	"tell me",
	"did i",
	"have i",
}

// unsafeActionClaims are completion claims a grounded assistant must
// never make; any match replaces the whole response.
var unsafeActionClaims = []string{
	"i sent",
	"i have sent",
	"scheduled it",
	"i scheduled",
	"has been scheduled",
	"was scheduled",
	"has been sent",
	"was sent",
	"deleted it",
	"has been deleted",
	"was deleted",
	"removed it",
	"has been removed",
	"was removed",
	"done for you",
}

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlRe   = regexp.MustCompile(`https?://\S+`)
)

// Sanitize normalizes whitespace and caps prompt size before model
// calls. Pure and total; never fails.
func Sanitize(prompt string) string {
	return SanitizeN(prompt, maxPromptChars)
}

// SanitizeN is Sanitize with an explicit rune cap
func SanitizeN(prompt string, maxChars int) string {
	cleaned := strings.Join(strings.Fields(prompt), " ")
	runes := []rune(cleaned)
	if len(runes) > maxChars {
		return string(runes[:maxChars])
	}
	return cleaned
}

// IsActionRequest detects execution-style requests that the chatbot must
// not perform. Informational questions are never blocked.
func IsActionRequest(prompt string) bool {
	lowered := strings.TrimSpace(strings.ToLower(prompt))

	for _, prefix := range infoQueryPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return false
		}
	}

	for _, pattern := range actionPatterns {
		if pattern.MatchString(lowered) {
			return true
		}
	}
	return false
}

// ContainsUnsafeActionClaim flags responses that incorrectly claim
// actions were executed
func ContainsUnsafeActionClaim(text string) bool {
	lowered := strings.ToLower(text)
	for _, claim := range unsafeActionClaims {
		if strings.Contains(lowered, claim) {
			return true
		}
	}
	return false
}

// MaskSensitiveText replaces email addresses and URLs with fixed
// placeholder tokens. Idempotent: masking already-masked text is a no-op.
func MaskSensitiveText(text string) string {
	masked := emailRe.ReplaceAllString(text, "[redacted-email]")
	return urlRe.ReplaceAllString(masked, "[redacted-url]")
}

// Engine applies output-side guardrails with a configurable redaction
// toggle. Input-side checks are stateless package functions.
type Engine struct {
	redactPII bool
}

// Option configures an Engine
type Option func(*Engine)

// WithRedaction toggles email/URL redaction of model output (default on)
func WithRedaction(enabled bool) Option {
	return func(e *Engine) {
		e.redactPII = enabled
	}
}

// New creates a guardrail engine
func New(opts ...Option) *Engine {
	e := &Engine{
		redactPII: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Redact masks emails/URLs in model output when redaction is enabled
func (e *Engine) Redact(text string) string {
	if !e.redactPII {
		return text
	}
	return MaskSensitiveText(text)
}

// ApplyOutput enforces post-generation checks on a response in place.
// Claim replacement takes precedence over redaction; the two are
// mutually exclusive per response.
func (e *Engine) ApplyOutput(resp *model.Response) {
	if resp.Text == "" {
		return
	}
	if ContainsUnsafeActionClaim(resp.Text) {
		resp.Text = ActionGuardrailMessage
		resp.SetMetric("guardrail_replaced", true)
		return
	}
	resp.Text = e.Redact(resp.Text)
}
