// Package resolver chooses which model configuration serves a request.
// Resolution walks four prioritized tiers and is deterministic for a fixed
// context: repeated calls yield identical results.
package resolver

import (
	"fmt"
	"sort"

	"github.com/driftlabs/drift/internal/provider"
)

// Source names the resolution tier that supplied the model.
type Source string

const (
	SourceExplicit      Source = "explicit"
	SourceConversation  Source = "conversation"
	SourceUserDefault   Source = "user-default"
	SourceSystemDefault Source = "system-default"
	SourceNone          Source = "none"
)

// Context is the pure input to resolution. No ownership implications.
type Context struct {
	ExplicitModelID     string
	ConversationModelID string
	UserDefaultModelID  string
	AvailableModels     []provider.ModelConfig
}

// Result reports the chosen model, the tier that supplied it, and the
// decisions taken along the way.
type Result struct {
	Model    *provider.ModelConfig
	Source   Source
	Trace    []string
	Warnings []string

	// AdoptAsUserDefault is set when the system-default tier decided, so
	// the caller may persist the choice as the user default. Resolve itself
	// never applies the side effect.
	AdoptAsUserDefault bool
}

// Resolve picks a model configuration. Priority, first match wins:
// explicit id, conversation id, user default id, earliest-created available
// model. A tier naming an id absent from AvailableModels records a warning
// and falls through; it is not fatal.
func Resolve(ctx Context) Result {
	var res Result

	tiers := []struct {
		source Source
		id     string
	}{
		{SourceExplicit, ctx.ExplicitModelID},
		{SourceConversation, ctx.ConversationModelID},
		{SourceUserDefault, ctx.UserDefaultModelID},
	}

	for _, tier := range tiers {
		if tier.id == "" {
			res.Trace = append(res.Trace, fmt.Sprintf("%s: not set", tier.source))
			continue
		}
		if cfg := find(ctx.AvailableModels, tier.id); cfg != nil {
			res.Trace = append(res.Trace, fmt.Sprintf("%s: matched %q", tier.source, tier.id))
			res.Model = cfg
			res.Source = tier.source
			return res
		}
		res.Trace = append(res.Trace, fmt.Sprintf("%s: %q not available", tier.source, tier.id))
		res.Warnings = append(res.Warnings, fmt.Sprintf("model %q (%s) is not available", tier.id, tier.source))
	}

	if len(ctx.AvailableModels) == 0 {
		res.Trace = append(res.Trace, "system-default: no models available")
		res.Warnings = append(res.Warnings, "no models available")
		res.Source = SourceNone
		return res
	}

	cfg := earliest(ctx.AvailableModels)
	res.Trace = append(res.Trace, fmt.Sprintf("system-default: matched %q", cfg.ID))
	res.Model = cfg
	res.Source = SourceSystemDefault
	res.AdoptAsUserDefault = true
	return res
}

// find returns a copy of the config with the given id, or nil.
func find(models []provider.ModelConfig, id string) *provider.ModelConfig {
	for i := range models {
		if models[i].ID == id {
			cfg := models[i]
			return &cfg
		}
	}
	return nil
}

// earliest returns the earliest-created model; equal timestamps tie-break
// on ascending id so the order is a deterministic total order.
func earliest(models []provider.ModelConfig) *provider.ModelConfig {
	sorted := make([]provider.ModelConfig, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	cfg := sorted[0]
	return &cfg
}
