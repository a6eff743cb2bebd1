// Package tokenizer counts prompt tokens with tiktoken.
//
// Unknown model ids deterministically fall back to the cl100k_base encoding
// so compression metrics stay comparable across target models.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/scaledown-ai/scaledown-go/errdefs"
)

// DefaultEncoding prices content for models tiktoken does not know.
const DefaultEncoding = "cl100k_base"

// Count returns the number of tokens in text for the given model. Empty text
// is 0 tokens. When no tokenizer backend can be loaded the error is an
// errdefs.ErrDependency, which is fatal for any step that needs token counts.
func Count(text, model string) (int, error) {
	if text == "" {
		return 0, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Non-OpenAI model (Claude, Llama, ...): fall back to the standard
		// encoding so ratios stay comparable.
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return 0, errdefs.Dependencyf("tokenizer backend unavailable: %v", err)
		}
	}

	return len(enc.Encode(text, nil, nil)), nil
}
