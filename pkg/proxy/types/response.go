package types

// ChatResponse is the body returned for a successful chat relay request.
type ChatResponse struct {
	// Reply is the assistant's generated text.
	Reply string `json:"reply"`

	// Model is the upstream model that produced the reply, when known.
	Model string `json:"model,omitempty"`

	// Usage reports upstream token accounting, when the provider returns it.
	Usage *Usage `json:"usage,omitempty"`
}

// Usage reports token counts for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
