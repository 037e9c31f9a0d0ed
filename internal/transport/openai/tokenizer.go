package openai

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know (custom or proxied deployments).
const fallbackEncoding = "cl100k_base"

// Tokenizer converts between text and model tokens.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenTokenizer is the BPE tokenizer used by OpenAI chat models.
type TiktokenTokenizer struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTiktokenTokenizer returns the encoding for model, or cl100k_base when
// the model is unknown.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return &TiktokenTokenizer{enc: enc, encoding: model}, nil
	}

	enc, err = tiktoken.GetEncoding(fallbackEncoding)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", fallbackEncoding, err)
	}
	return &TiktokenTokenizer{enc: enc, encoding: fallbackEncoding}, nil
}

// Encode tokenizes text. Special-token text is encoded as plain text.
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts tokens back to text.
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Encoding names the model or encoding the tokenizer was loaded for.
func (t *TiktokenTokenizer) Encoding() string {
	return t.encoding
}
