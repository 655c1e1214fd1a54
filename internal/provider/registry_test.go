package provider

import (
	"context"
	"testing"
)

type nullProvider struct{}

func (nullProvider) Name() string { return "null" }

func (nullProvider) Stream(ctx context.Context, opts CompletionOptions) <-chan StreamChunk {
	ch := make(chan StreamChunk)
	close(ch)
	return ch
}

func TestRegistryRegisterNewAndKinds(t *testing.T) {
	r := &Registry{factories: make(map[Kind]Factory)}
	r.Register(Kind("null"), func(cfg ModelConfig) (LLMProvider, error) {
		return nullProvider{}, nil
	})

	kinds := r.Kinds()
	if len(kinds) != 1 || kinds[0] != Kind("null") {
		t.Fatalf("got kinds %v", kinds)
	}

	p, err := r.New(ModelConfig{ID: "m", Model: "null-model", Provider: Kind("null")})
	if err != nil {
		t.Fatalf("factory lookup failed: %v", err)
	}
	if p.Name() != "null" {
		t.Errorf("got %q", p.Name())
	}

	if _, err := r.New(ModelConfig{Provider: Kind("missing")}); err == nil {
		t.Error("expected error for unregistered kind")
	}
}

func TestPackageLevelKindsReflectsRegistrations(t *testing.T) {
	Register(Kind("test-kind"), func(cfg ModelConfig) (LLMProvider, error) {
		return nullProvider{}, nil
	})

	found := false
	for _, k := range Kinds() {
		if k == Kind("test-kind") {
			found = true
		}
	}
	if !found {
		t.Errorf("registered kind missing from Kinds(): %v", Kinds())
	}
}
