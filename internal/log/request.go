package log

import (
	"fmt"
	"strings"

	"github.com/driftlabs/drift/internal/provider"
)

// LogRequest logs an LLM request in human-readable format.
func LogRequest(providerName, model string, opts provider.CompletionOptions) {
	if !enabled {
		return
	}

	turn := NextTurn()

	var sb strings.Builder
	fmt.Fprintf(&sb, "───────────────────────────────────────── Turn %d ─────────────────────────────────────────\n", turn)
	fmt.Fprintf(&sb, ">>> [%s] %s | %s reasoning=%v\n", providerName, model, formatParams(opts.Params), opts.Reasoning)

	if opts.SystemPrompt != "" {
		fmt.Fprintf(&sb, "    System: %s\n", escapeForLog(opts.SystemPrompt))
	}

	fmt.Fprintf(&sb, "    Messages(%d):\n", len(opts.Messages))
	for i, msg := range opts.Messages {
		text := msg.Text()
		if text != "" {
			fmt.Fprintf(&sb, "      [%d] %s: %s\n", i, msg.Role, escapeForLog(text))
		}
		for _, part := range msg.Content {
			if part.Type != "text" {
				fmt.Fprintf(&sb, "      [%d] %s part: %s\n", i, msg.Role, part.Type)
			}
		}
	}

	logger.Info(sb.String())
}

// formatParams renders only the explicitly set generation parameters.
func formatParams(p provider.Params) string {
	var parts []string
	if p.MaxTokens > 0 {
		parts = append(parts, fmt.Sprintf("max_tokens=%d", p.MaxTokens))
	}
	if p.Temperature != nil {
		parts = append(parts, fmt.Sprintf("temp=%.1f", *p.Temperature))
	}
	if p.TopP != nil {
		parts = append(parts, fmt.Sprintf("top_p=%.2f", *p.TopP))
	}
	if p.FrequencyPenalty != nil {
		parts = append(parts, fmt.Sprintf("freq_penalty=%.2f", *p.FrequencyPenalty))
	}
	if p.PresencePenalty != nil {
		parts = append(parts, fmt.Sprintf("pres_penalty=%.2f", *p.PresencePenalty))
	}
	if len(parts) == 0 {
		return "defaults"
	}
	return strings.Join(parts, " ")
}
