package log

import (
	"fmt"
	"strings"

	"github.com/driftlabs/drift/internal/provider"
)

// LogResponse logs an LLM response in human-readable format.
func LogResponse(providerName string, resp provider.CompletionResponse) {
	if !enabled {
		return
	}

	turn := CurrentTurn()

	var sb strings.Builder
	fmt.Fprintf(&sb, "<<< [%d] %s stop=%s | in=%d out=%d\n", turn, providerName, resp.StopReason, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	if resp.Reasoning != "" {
		fmt.Fprintf(&sb, "    Reasoning: %s\n", escapeForLog(resp.Reasoning))
	}

	if resp.Content != "" {
		sb.WriteString("    Content:\n")
		for _, line := range strings.Split(resp.Content, "\n") {
			fmt.Fprintf(&sb, "        %s\n", line)
		}
	}

	logger.Info(sb.String())
}
