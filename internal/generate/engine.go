// Package generate runs generations end to end: it resolves a provider for
// the chosen model, consumes its chunk stream with cancellation checked at
// every chunk boundary, emits the phased event protocol, and persists the
// final or partial content before the terminal event is signalled.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driftlabs/drift/internal/cancel"
	"github.com/driftlabs/drift/internal/log"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/provider"
	"github.com/driftlabs/drift/internal/stream"
)

// chunkTimeout is the safety net on provider reads: if no chunk arrives
// within it, the attempt is aborted so cancellation latency stays bounded.
const chunkTimeout = 60 * time.Second

// placeholderContent stands in for an empty accumulation so a cancelled
// message entity is never content-less.
const placeholderContent = "…"

// Phase is the lifecycle state of a generation session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStarted   Phase = "started"
	PhaseReasoning Phase = "reasoning"
	PhaseTexting   Phase = "texting"
	PhaseEnded     Phase = "ended"
	PhaseCancelled Phase = "cancelled"
	PhaseErrored   Phase = "errored"
)

// MessageWriter is the persistence boundary. Terminal content is written
// through it before the terminal event reaches the display side, so the
// display state is always a reflection of persisted content.
type MessageWriter interface {
	UpdateMessage(msg *message.Message) error
}

// Request describes one generation.
type Request struct {
	ConversationID string

	// ProvisionalID covers the cancellation window before the placeholder
	// message exists. The token is re-registered under the final message id
	// once it is assigned; Cancel works for either.
	ProvisionalID string

	Context      []message.Message
	Model        provider.ModelConfig
	SystemPrompt string
}

// Result is the outcome of a generation.
type Result struct {
	Message *message.Message
	Usage   message.Usage
	Phase   Phase
}

// Engine coordinates provider streaming, cancellation, events, and
// persistence. Each Generate call runs as its own task; the cancellation
// manager is the only state shared across concurrent generations.
type Engine struct {
	Cancels    *cancel.Manager
	Bus        *stream.Bus
	Writer     MessageWriter
	Classifier RejectionClassifier

	// Providers overrides provider construction in tests; nil uses the
	// registered factories.
	Providers func(cfg provider.ModelConfig) (provider.LLMProvider, error)
}

// NewEngine creates an engine with the default rejection classifier.
func NewEngine(cancels *cancel.Manager, bus *stream.Bus, writer MessageWriter) *Engine {
	return &Engine{
		Cancels:    cancels,
		Bus:        bus,
		Writer:     writer,
		Classifier: DefaultClassifier(),
	}
}

// session tracks one generation's accumulation and phase. Phase flags
// persist across a retry so each protocol event is emitted at most once.
type session struct {
	emitter *stream.Emitter
	phase   Phase

	reasoningStarted bool
	reasoningEnded   bool
	textStarted      bool

	text      strings.Builder
	reasoning strings.Builder
}

// Generate runs a full generation for the request and returns the final or
// partial message. Cancellation resolves as PhaseCancelled with partial
// content, never as an error.
func (e *Engine) Generate(ctx context.Context, req Request) (Result, error) {
	token := cancel.NewToken()
	if req.ProvisionalID != "" {
		e.Cancels.Register(req.ProvisionalID, token)
	}

	msg := message.NewAssistant(req.ConversationID)
	e.Cancels.Register(msg.ID, token)
	defer e.Cancels.Complete(msg.ID)

	sess := &session{
		emitter: stream.NewEmitter(e.Bus, req.ConversationID, msg.ID),
		phase:   PhaseIdle,
	}

	log.Logger().Debug("generation starting", log.MessagesField(req.Context))

	sess.emitter.Start()
	sess.phase = PhaseStarted

	p, err := e.newProvider(req.Model)
	if err != nil {
		return e.fail(sess, msg, "provider_unavailable", err)
	}

	reasoning := req.Model.Caps.SupportsReasoning

	resp, err := RunWithFallback(ctx, func(ctx context.Context, withOptional bool) (*provider.CompletionResponse, error) {
		// Each attempt accumulates from scratch; a retry after streamed
		// chunks must not append onto the rejected attempt's output. The
		// terminal event's content stays authoritative for anything the
		// first attempt already emitted.
		sess.text.Reset()
		sess.reasoning.Reset()
		return e.consume(ctx, p, sess, token, provider.CompletionOptions{
			Model:        req.Model.Model,
			Messages:     req.Context,
			Params:       req.Model.Params,
			SystemPrompt: req.SystemPrompt,
			Reasoning:    reasoning && withOptional,
		})
	}, reasoning, e.Classifier)

	if token.Cancelled() {
		return e.cancelled(sess, msg)
	}
	if err != nil {
		return e.fail(sess, msg, "provider_error", err)
	}

	// Close any open phases so consumers see a complete protocol run even
	// for zero-chunk streams.
	sess.closeReasoning()
	if !sess.textStarted {
		sess.emitter.TextStart()
	}
	sess.emitter.TextEnd()

	msg.SetText(sess.text.String())
	msg.Reasoning = sess.reasoning.String()
	msg.UpdatedAt = time.Now()

	if err := e.persist(msg); err != nil {
		return e.fail(sess, msg, "persist_error", err)
	}

	sess.phase = PhaseEnded
	sess.emitter.Ended(msg.Clone(), resp.Usage)

	return Result{Message: msg, Usage: resp.Usage, Phase: PhaseEnded}, nil
}

// consume reads the provider stream, checking the cancellation token at each
// chunk boundary. A chunk already received is always accumulated; once
// cancelled no further chunks are read.
func (e *Engine) consume(ctx context.Context, p provider.LLMProvider, sess *session, token *cancel.Token, opts provider.CompletionOptions) (*provider.CompletionResponse, error) {
	attemptCtx, cancelAttempt := context.WithCancel(ctx)
	defer cancelAttempt()

	// Read-timeout safety net: abort the attempt if no chunk arrives.
	watchdog := time.AfterFunc(chunkTimeout, cancelAttempt)
	defer watchdog.Stop()

	var resp *provider.CompletionResponse
	var streamErr error

	for chunk := range p.Stream(attemptCtx, opts) {
		watchdog.Reset(chunkTimeout)

		switch chunk.Type {
		case provider.ChunkTypeReasoning:
			if !sess.reasoningStarted {
				sess.reasoningStarted = true
				sess.phase = PhaseReasoning
				sess.emitter.ReasoningStart()
			}
			sess.reasoning.WriteString(chunk.Text)
			sess.emitter.ReasoningChunk(chunk.Text)

		case provider.ChunkTypeText:
			sess.closeReasoning()
			if !sess.textStarted {
				sess.textStarted = true
				sess.phase = PhaseTexting
				sess.emitter.TextStart()
			}
			sess.text.WriteString(chunk.Text)
			sess.emitter.TextChunk(chunk.Text)

		case provider.ChunkTypeDone:
			resp = chunk.Response

		case provider.ChunkTypeError:
			streamErr = chunk.Error
		}

		if token.Cancelled() {
			cancelAttempt()
			log.LogCancel("", sess.text.Len())
			return nil, nil
		}
	}

	if token.Cancelled() {
		return nil, nil
	}
	if streamErr != nil {
		return nil, streamErr
	}
	if resp == nil {
		if err := attemptCtx.Err(); err != nil {
			return nil, fmt.Errorf("stream aborted: %w", err)
		}
		return nil, errors.New("stream closed without a done chunk")
	}
	return resp, nil
}

// closeReasoning emits the authoritative reasoning-end once.
func (s *session) closeReasoning() {
	if s.reasoningStarted && !s.reasoningEnded {
		s.reasoningEnded = true
		s.emitter.ReasoningEnd()
	}
}

// cancelled finalizes a cancelled generation with best-effort partial
// content; the partial message is never content-less.
func (e *Engine) cancelled(sess *session, msg *message.Message) (Result, error) {
	sess.closeReasoning()

	text := sess.text.String()
	if text == "" {
		text = placeholderContent
	}
	msg.SetText(text)
	msg.Reasoning = sess.reasoning.String()
	msg.UpdatedAt = time.Now()

	if err := e.persist(msg); err != nil {
		log.LogError("persist on cancel", err)
	}

	sess.phase = PhaseCancelled
	sess.emitter.Cancelled(msg.Clone())

	return Result{Message: msg, Phase: PhaseCancelled}, nil
}

// fail persists whatever accumulated, emits the errored terminal event, and
// propagates the error.
func (e *Engine) fail(sess *session, msg *message.Message, code string, err error) (Result, error) {
	sess.closeReasoning()

	var partial *message.Message
	if sess.text.Len() > 0 || sess.reasoning.Len() > 0 {
		msg.SetText(sess.text.String())
		msg.Reasoning = sess.reasoning.String()
		msg.UpdatedAt = time.Now()
		if perr := e.persist(msg); perr != nil {
			log.LogError("persist on error", perr)
		}
		partial = msg.Clone()
	}

	sess.phase = PhaseErrored
	sess.emitter.Errored(code, err, partial)
	log.LogError(code, err)

	return Result{Message: msg, Phase: PhaseErrored}, fmt.Errorf("%s: %w", code, err)
}

// persist writes the message through the persistence boundary.
func (e *Engine) persist(msg *message.Message) error {
	if e.Writer == nil {
		return nil
	}
	return e.Writer.UpdateMessage(msg)
}

// newProvider constructs the provider for a model configuration.
func (e *Engine) newProvider(cfg provider.ModelConfig) (provider.LLMProvider, error) {
	if e.Providers != nil {
		return e.Providers(cfg)
	}
	return provider.New(cfg)
}

// GenerateObject runs a non-streaming generation that must produce a JSON
// object and decodes it into out, salvaging the outermost {...} span when
// the model wraps the object in prose.
func (e *Engine) GenerateObject(ctx context.Context, req Request, out any) error {
	p, err := e.newProvider(req.Model)
	if err != nil {
		return err
	}

	resp, err := RunWithFallback(ctx, func(ctx context.Context, withOptional bool) (provider.CompletionResponse, error) {
		return provider.Complete(ctx, p, provider.CompletionOptions{
			Model:        req.Model.Model,
			Messages:     req.Context,
			Params:       req.Model.Params,
			SystemPrompt: req.SystemPrompt,
			Reasoning:    req.Model.Caps.SupportsReasoning && withOptional,
		})
	}, req.Model.Caps.SupportsReasoning, e.Classifier)
	if err != nil {
		return err
	}

	return ParseStructured(resp.Content, out)
}
