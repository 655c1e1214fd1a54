package generate

import (
	"context"
	"strings"
)

// RejectionClassifier decides whether an error means the provider rejected
// an optional parameter. It is a heuristic: a false negative just skips the
// retry, a false positive costs one extra call. Isolated behind an
// interface so it can be replaced per provider without touching the retry
// control flow.
type RejectionClassifier interface {
	IsParamRejection(err error) bool
}

// SubstringClassifier classifies parameter rejections by matching error
// message substrings. Matching is case-insensitive.
type SubstringClassifier struct {
	Patterns []string
}

// DefaultClassifier matches the 400-class signatures commonly returned when
// a provider does not understand reasoning parameters.
func DefaultClassifier() *SubstringClassifier {
	return &SubstringClassifier{
		Patterns: []string{
			"400",
			"bad request",
			"unknown parameter",
			"unrecognized request argument",
			"reasoning",
			"thinking",
		},
	}
}

// IsParamRejection reports whether the error matches any pattern.
func (c *SubstringClassifier) IsParamRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range c.Patterns {
		if strings.Contains(msg, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// RunWithFallback calls attempt with optional parameters enabled. If that
// fails, optional parameters were in play, and the classifier recognizes a
// parameter rejection, it retries exactly once with them disabled. Any
// other error, or a second failure, propagates unchanged. Never loops.
func RunWithFallback[T any](ctx context.Context, attempt func(ctx context.Context, withOptional bool) (T, error), hasOptional bool, classifier RejectionClassifier) (T, error) {
	result, err := attempt(ctx, true)
	if err == nil {
		return result, nil
	}
	if !hasOptional || classifier == nil || !classifier.IsParamRejection(err) {
		return result, err
	}
	return attempt(ctx, false)
}
