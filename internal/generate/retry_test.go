package generate

import (
	"context"
	"errors"
	"testing"
)

func TestRunWithFallbackSuccessFirstAttempt(t *testing.T) {
	calls := 0
	result, err := RunWithFallback(context.Background(), func(ctx context.Context, withOptional bool) (string, error) {
		calls++
		if !withOptional {
			t.Error("first attempt should include optional parameters")
		}
		return "ok", nil
	}, true, DefaultClassifier())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected one successful call, got result=%q calls=%d", result, calls)
	}
}

func TestRunWithFallbackRetriesOnceOnParamRejection(t *testing.T) {
	calls := 0
	result, err := RunWithFallback(context.Background(), func(ctx context.Context, withOptional bool) (string, error) {
		calls++
		if withOptional {
			return "", errors.New("400 bad request: unknown parameter 'thinking'")
		}
		return "fallback", nil
	}, true, DefaultClassifier())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "fallback" {
		t.Errorf("expected fallback result, got %q", result)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls, got %d", calls)
	}
}

func TestRunWithFallbackNeverLoops(t *testing.T) {
	calls := 0
	_, err := RunWithFallback(context.Background(), func(ctx context.Context, withOptional bool) (int, error) {
		calls++
		return 0, errors.New("400 unrecognized request argument")
	}, true, DefaultClassifier())

	if err == nil {
		t.Fatal("expected error after failed retry")
	}
	if calls != 2 {
		t.Errorf("retry must be bounded to one extra attempt, got %d calls", calls)
	}
}

func TestRunWithFallbackSkipsRetryWithoutOptionalParams(t *testing.T) {
	calls := 0
	_, err := RunWithFallback(context.Background(), func(ctx context.Context, withOptional bool) (int, error) {
		calls++
		return 0, errors.New("400 bad request")
	}, false, DefaultClassifier())

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("no optional params were in play, expected 1 call, got %d", calls)
	}
}

func TestRunWithFallbackSkipsRetryOnUnrelatedError(t *testing.T) {
	calls := 0
	_, err := RunWithFallback(context.Background(), func(ctx context.Context, withOptional bool) (int, error) {
		calls++
		return 0, errors.New("connection refused")
	}, true, DefaultClassifier())

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-rejection errors must not retry, got %d calls", calls)
	}
}

func TestSubstringClassifier(t *testing.T) {
	c := &SubstringClassifier{Patterns: []string{"Unknown Parameter"}}

	if !c.IsParamRejection(errors.New("unknown parameter: reasoning_effort")) {
		t.Error("matching should be case-insensitive")
	}
	if c.IsParamRejection(errors.New("rate limited")) {
		t.Error("unrelated error classified as rejection")
	}
	if c.IsParamRejection(nil) {
		t.Error("nil error classified as rejection")
	}
}
