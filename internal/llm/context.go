package llm

import "context"

type purposeKey struct{}

// WithPurpose labels LLM calls made under ctx, e.g. "quiz-feedback". The
// label is journaled with each call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unspecified".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unspecified"
}
