package model

// Metrics accumulates per-request measurement values across pipeline
// stages (latency, token counts, char counts, guardrail flags). Values
// may be nil when a backend did not report them.
type Metrics map[string]any

// Response is the normalized result of one provider invocation. An empty
// Text means the model produced no usable text; a non-empty Error implies
// Text is empty. A Response is mutable only within one orchestration call
// and is never shared across requests.
type Response struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Text     string  `json:"text,omitempty"`
	Error    string  `json:"error,omitempty"`
	Metrics  Metrics `json:"metrics"`
}

// NewResponse creates a successful response with an empty metrics map
func NewResponse(provider, model, text string) *Response {
	return &Response{
		Provider: provider,
		Model:    model,
		Text:     text,
		Metrics:  Metrics{},
	}
}

// NewErrorResponse creates a failed response. Text is left empty so the
// caller falls back to the deterministic responder.
func NewErrorResponse(provider, model, errMsg string) *Response {
	return &Response{
		Provider: provider,
		Model:    model,
		Error:    errMsg,
		Metrics:  Metrics{},
	}
}

// Failed reports whether the invocation ended in an error
func (r *Response) Failed() bool {
	return r.Error != ""
}

// SetMetric records one metric value, allocating the map if needed
func (r *Response) SetMetric(key string, value any) {
	if r.Metrics == nil {
		r.Metrics = Metrics{}
	}
	r.Metrics[key] = value
}

// SetMetricDefault records a metric value only when the key is not set yet
func (r *Response) SetMetricDefault(key string, value any) {
	if r.Metrics == nil {
		r.Metrics = Metrics{}
	}
	if _, ok := r.Metrics[key]; !ok {
		r.Metrics[key] = value
	}
}
