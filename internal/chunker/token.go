package chunker

import "github.com/pkoukk/tiktoken-go"

// TokenCounter counts tokens using the cl100k_base encoding, approximating
// with len/4 when the encoding is unavailable (offline environments).
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter builds a counter. Never fails; a load error just degrades
// counting to the character approximation.
func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the token count for text.
func (t *TokenCounter) Count(text string) int {
	if t == nil || t.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}
