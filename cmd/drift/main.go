package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/driftlabs/drift/internal/cancel"
	"github.com/driftlabs/drift/internal/chat"
	"github.com/driftlabs/drift/internal/config"
	"github.com/driftlabs/drift/internal/generate"
	"github.com/driftlabs/drift/internal/log"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/resolver"
	"github.com/driftlabs/drift/internal/session"
	"github.com/driftlabs/drift/internal/stream"
	"github.com/driftlabs/drift/internal/tui"

	// Import providers for registration
	_ "github.com/driftlabs/drift/internal/provider/anthropic"
	_ "github.com/driftlabs/drift/internal/provider/google"
	_ "github.com/driftlabs/drift/internal/provider/openai"
)

var version = "0.1.0"

func init() {
	// Load .env file if it exists (silent fail if not found)
	_ = godotenv.Load()

	// Initialize logging (enabled via DRIFT_DEBUG=1)
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drift [message]",
	Short: "Drift - AI chat assistant for the terminal",
	Long: `Drift is a streaming AI chat assistant for the terminal.
Multi-provider support, reasoning display, resumable conversations.

Non-interactive mode:
  drift "your message"       Send a message directly
  echo "message" | drift     Send a message via stdin
  drift -p "prompt"          Use a custom prompt

Resume:
  drift -c                   Continue the most recent conversation`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		input := getInputMessage(args)
		if input != "" {
			if err := runNonInteractive(app, input); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if continueFlag {
			if err := resumeLatest(app); err != nil {
				fmt.Fprintf(os.Stderr, "could not resume: %v\n", err)
			}
		}

		if err := tui.Run(app); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// promptFlag is the custom prompt flag
var promptFlag string

// modelFlag requests a specific model for this invocation
var modelFlag string

// continueFlag resumes the most recent conversation instead of starting new
var continueFlag bool

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Custom prompt to send")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model id to use for this invocation")
	rootCmd.Flags().BoolVarP(&continueFlag, "continue", "c", false, "Resume the most recent conversation")
}

// resumeLatest loads the most recent transcript into the display store so
// the interface picks that conversation up instead of starting a new one.
func resumeLatest(app *tui.App) error {
	if app.Sessions == nil {
		return fmt.Errorf("session store unavailable")
	}
	transcript, err := app.Sessions.GetLatest()
	if err != nil {
		return err
	}

	conv := transcript.Conversation()
	msgs := make([]*message.Message, len(transcript.Messages))
	for i := range transcript.Messages {
		msgs[i] = &transcript.Messages[i]
	}
	app.Store.AddConversation(&conv)
	app.Store.Ingest(conv.ID, msgs, true)
	app.Resume = &conv
	return nil
}

// buildApp wires the subsystems together.
func buildApp() (*tui.App, error) {
	loader := config.NewLoader()
	settings, err := loader.Load()
	if err != nil {
		return nil, err
	}

	for k, v := range settings.Env {
		if os.Getenv(k) == "" {
			_ = os.Setenv(k, v)
		}
	}

	modelsPath := settings.ModelsFile
	if modelsPath == "" {
		modelsPath = config.DefaultModelsPath()
	}
	models, err := config.LoadModels(modelsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		models = nil
	}

	store := chat.NewStore()
	buffer := chat.NewChunkBuffer(store.AppendChunk)
	bus := stream.NewBus()
	cancels := cancel.NewManager()

	sessions, err := session.NewStore()
	if err != nil {
		log.LogError("session store", err)
		sessions = nil
	}

	// The engine persists through the transcript store; the display store is
	// only ever written by the event handlers.
	var writer generate.MessageWriter
	if sessions != nil {
		writer = sessions
	}
	engine := generate.NewEngine(cancels, bus, writer)

	return &tui.App{
		Store:    store,
		Buffer:   buffer,
		Bus:      bus,
		Engine:   engine,
		Cancels:  cancels,
		Sessions: sessions,
		Loader:   loader,
		Settings: settings,
		Models:   models,
	}, nil
}

// getInputMessage gets input from args, flags, or stdin
func getInputMessage(args []string) string {
	if promptFlag != "" {
		return promptFlag
	}

	if len(args) > 0 {
		return strings.Join(args, " ")
	}

	// Check if stdin has data (non-interactive pipe)
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		reader := bufio.NewReader(os.Stdin)
		data, err := io.ReadAll(reader)
		if err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// runNonInteractive resolves a model, streams one response to stdout, and
// exits.
func runNonInteractive(app *tui.App, input string) error {
	result := resolver.Resolve(resolver.Context{
		ExplicitModelID:    modelFlag,
		UserDefaultModelID: app.Settings.DefaultModelID,
		AvailableModels:    app.Models,
	})
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if result.Model == nil {
		return fmt.Errorf("no model available; configure %s", config.DefaultModelsPath())
	}
	if result.AdoptAsUserDefault {
		_ = app.Loader.SaveUserDefaultModel(result.Model.ID)
	}

	conv := message.NewConversation()
	userMsg := message.NewUser(conv.ID, input)

	events := app.Bus.Subscribe()
	done := make(chan error, 1)
	go func() {
		_, err := app.Engine.Generate(context.Background(), generate.Request{
			ConversationID: conv.ID,
			Context:        []message.Message{*userMsg},
			Model:          *result.Model,
			SystemPrompt:   app.Settings.SystemPrompt,
		})
		done <- err
	}()

	for ev := range events {
		switch ev.Type {
		case stream.EventTextChunk:
			fmt.Print(ev.Text)
		case stream.EventEnded, stream.EventCancelled:
			fmt.Println()
			return <-done
		case stream.EventErrored:
			fmt.Println()
			return <-done
		}
	}

	return <-done
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("drift version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
