// Package dispatch routes one chat request to the provider family that
// serves its model and returns a single reply or a flat error.
package dispatch

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
	"github.com/itzenzy2/PersonalChatBot/internal/event"
	"github.com/itzenzy2/PersonalChatBot/internal/logging"
	"github.com/itzenzy2/PersonalChatBot/internal/provider"
)

// ChatRequest is one incoming chat call.
type ChatRequest struct {
	History      conversation.Conversation
	Model        string
	SystemPrompt string
	WebSearch    bool
}

// Options configures a Dispatcher.
type Options struct {
	// Capabilities resolves model selectors. Defaults to capability.Default().
	Capabilities *capability.Table
	Gemini       provider.GeminiConfig
	GitHub       provider.GitHubConfig
	// Events receives one activity event per request. Optional.
	Events *event.Bus
}

type (
	geminiAdapter = provider.Adapter[*provider.GeminiRequest, *genai.GenerateContentResponse]
	githubAdapter = provider.Adapter[*provider.GitHubRequest, *schema.Message]
)

// Dispatcher owns one adapter per provider family. A family whose adapter
// could not be built keeps the construction error and fails each request
// routed to it.
type Dispatcher struct {
	table  *capability.Table
	events *event.Bus

	gemini    geminiAdapter
	geminiErr error
	github    githubAdapter
	githubErr error
}

// New builds the adapters. Missing credentials are not an error here; they
// surface when a request needs that family.
func New(ctx context.Context, opts Options) *Dispatcher {
	d := &Dispatcher{table: opts.Capabilities, events: opts.Events}
	if d.table == nil {
		d.table = capability.Default()
	}

	if a, err := provider.NewGeminiAdapter(ctx, opts.Gemini); err != nil {
		d.geminiErr = err
		logging.Warn().Err(err).Msg("Gemini family unavailable")
	} else {
		d.gemini = a
	}

	if a, err := provider.NewGitHubAdapter(ctx, opts.GitHub); err != nil {
		d.githubErr = err
		logging.Warn().Err(err).Msg("GitHub Models family unavailable")
	} else {
		d.github = a
	}
	return d
}

// Capabilities returns the table used for routing.
func (d *Dispatcher) Capabilities() *capability.Table {
	return d.table
}

// HandleChatRequest answers one chat request. A non-nil error is always a
// *chaterr.Error.
func (d *Dispatcher) HandleChatRequest(ctx context.Context, req ChatRequest) (*provider.Result, error) {
	start := time.Now()

	entry, in, err := d.prepare(req)
	if err != nil {
		return nil, d.fail(ctx, entry, req, start, err)
	}

	var result *provider.Result
	switch entry.Provider {
	case capability.Gemini:
		if d.gemini == nil {
			err = d.geminiErr
			break
		}
		result, err = call(ctx, d.gemini, in)
	case capability.GitHubModels:
		if d.github == nil {
			err = d.githubErr
			break
		}
		result, err = call(ctx, d.github, in)
	}
	if err != nil {
		return nil, d.fail(ctx, entry, req, start, err)
	}

	elapsed := time.Since(start)
	d.logger(ctx, entry, req).Info().
		Dur("duration", elapsed).
		Bool("grounded", result.GroundingMetadata != nil).
		Msg("chat request completed")
	d.publish(ctx, event.ChatCompleted, event.ChatCompletedData{
		RequestID:  logging.RequestID(ctx),
		Provider:   string(entry.Provider),
		Model:      entry.Model,
		WebSearch:  webSearch(entry, req),
		Messages:   len(req.History),
		Grounded:   result.GroundingMetadata != nil,
		DurationMs: elapsed.Milliseconds(),
	})
	return result, nil
}

// StreamChatRequest is HandleChatRequest with the reply delivered as text
// fragments. Closing the reader early stops the upstream call. Errors read
// from the stream are provider errors; pass them through chaterr.Normalize.
func (d *Dispatcher) StreamChatRequest(ctx context.Context, req ChatRequest) (*schema.StreamReader[string], error) {
	start := time.Now()

	entry, in, err := d.prepare(req)
	if err != nil {
		return nil, d.fail(ctx, entry, req, start, err)
	}

	var sr *schema.StreamReader[string]
	switch entry.Provider {
	case capability.Gemini:
		if d.gemini == nil {
			err = d.geminiErr
			break
		}
		sr, err = stream(ctx, d.gemini, in)
	case capability.GitHubModels:
		if d.github == nil {
			err = d.githubErr
			break
		}
		sr, err = stream(ctx, d.github, in)
	}
	if err != nil {
		return nil, d.fail(ctx, entry, req, start, err)
	}

	d.logger(ctx, entry, req).Info().
		Dur("duration", time.Since(start)).
		Msg("chat stream opened")
	d.publish(ctx, event.ChatStreamed, event.ChatStreamedData{
		RequestID: logging.RequestID(ctx),
		Provider:  string(entry.Provider),
		Model:     entry.Model,
		WebSearch: webSearch(entry, req),
		Messages:  len(req.History),
	})
	return sr, nil
}

// prepare validates the history, resolves the model and applies the
// family's system-prompt strategy.
func (d *Dispatcher) prepare(req ChatRequest) (capability.Entry, provider.Input, error) {
	entry := d.table.Resolve(req.Model)

	if err := req.History.Validate(); err != nil {
		return entry, provider.Input{}, err
	}
	prior, latest, err := conversation.SplitLatest(req.History)
	if err != nil {
		return entry, provider.Input{}, err
	}

	in := provider.Input{
		Prior:      prior,
		Latest:     latest,
		Capability: entry,
		WebSearch:  req.WebSearch,
	}
	if entry.NativeSystemRole {
		in.SystemPrompt = req.SystemPrompt
	} else {
		in.Prior = conversation.WithSystemPrompt(prior, req.SystemPrompt)
	}
	return entry, in, nil
}

func call[Req, Resp any](ctx context.Context, a provider.Adapter[Req, Resp], in provider.Input) (*provider.Result, error) {
	req, err := a.BuildRequest(in)
	if err != nil {
		return nil, err
	}
	resp, err := a.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.ParseResponse(resp)
}

func stream[Req, Resp any](ctx context.Context, a provider.Adapter[Req, Resp], in provider.Input) (*schema.StreamReader[string], error) {
	req, err := a.BuildRequest(in)
	if err != nil {
		return nil, err
	}
	return a.Stream(ctx, req)
}

func (d *Dispatcher) fail(ctx context.Context, entry capability.Entry, req ChatRequest, start time.Time, err error) error {
	norm := chaterr.Normalize(err)

	level := zerolog.WarnLevel
	if norm.Kind == chaterr.KindInternal {
		level = zerolog.ErrorLevel
	}
	elapsed := time.Since(start)
	d.logger(ctx, entry, req).WithLevel(level).
		Dur("duration", elapsed).
		Str("kind", string(norm.Kind)).
		Err(err).
		Msg("chat request failed")
	d.publish(ctx, event.ChatFailed, event.ChatFailedData{
		RequestID:  logging.RequestID(ctx),
		Provider:   string(entry.Provider),
		Model:      entry.Model,
		Kind:       string(norm.Kind),
		Error:      norm.Message,
		DurationMs: elapsed.Milliseconds(),
	})
	return norm
}

func (d *Dispatcher) publish(ctx context.Context, t event.EventType, data any) {
	if err := d.events.Publish(t, data); err != nil {
		logging.FromContext(ctx).Debug().Err(err).Str("eventType", string(t)).Msg("event not published")
	}
}

func webSearch(entry capability.Entry, req ChatRequest) bool {
	return req.WebSearch && entry.SupportsWebSearch
}

func (d *Dispatcher) logger(ctx context.Context, entry capability.Entry, req ChatRequest) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("provider", string(entry.Provider)).
		Str("model", entry.Model).
		Bool("webSearch", webSearch(entry, req)).
		Int("messages", len(req.History)).
		Logger()
	return &l
}
