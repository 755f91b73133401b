package interfaces

import "context"

// FinishReason classifies why a remote model stopped generating.
type FinishReason string

const (
	// FinishStop means generation completed naturally.
	FinishStop FinishReason = "stop"
	// FinishMaxTokens means the output-length cap was hit. Acceptable: the
	// safety gate still validates whatever text was produced.
	FinishMaxTokens FinishReason = "max_tokens"
	// FinishOther covers safety blocks, recitation and any other cutoff.
	// Candidates with this reason are discarded.
	FinishOther FinishReason = "other"
)

// GenerationConfig carries the generation knobs the gate controls per call.
type GenerationConfig struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Candidate is one response candidate from a remote refinement provider.
type Candidate struct {
	Text         string
	FinishReason FinishReason
}

// RefinementProvider is the narrow contract to a remote LLM: prompt in,
// candidate out. Production adapters exist for Gemini and Claude; tests use a
// deterministic fake.
type RefinementProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*Candidate, error)
}
