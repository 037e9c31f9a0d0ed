package domain

// Generation is the outcome of a single chat completion.
type Generation struct {
	Text             string
	PromptTokens     int // tokens submitted after budget enforcement
	CompletionTokens int
	Truncated        bool // prompt was cut to fit the token budget
}
