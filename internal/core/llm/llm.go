// Package llm routes chat-style inference requests to provider adapters
// selected by the model identifier prefix.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/logging"
)

// ErrUnsupportedModel is returned by Dispatch when no provider matches.
var ErrUnsupportedModel = errors.New("unsupported model")

// Request is one inference call. Built per call, never stored.
type Request struct {
	System     string
	User       string
	Transcript string
	Model      string

	// APIKey overrides the resolver when set.
	APIKey string
}

// Prompt is the user content every adapter receives.
func (r Request) Prompt() string {
	return r.User + "\n" + r.Transcript
}

// Call is what an adapter sees after routing.
type Call struct {
	Model  string
	APIKey string
	System string
	Prompt string
}

// Adapter talks to one provider family.
type Adapter interface {
	Name() string
	Chat(ctx context.Context, call Call) (string, error)
}

// KeyResolver returns the credential for a provider key slot
// ("openai", "moonshot", "claude", ...).
type KeyResolver func(name string) (string, error)

// Dispatcher holds the provider table.
type Dispatcher struct {
	adapters map[Provider]Adapter
	keys     KeyResolver
	timeout  time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAdapter registers or replaces the adapter for p.
func WithAdapter(p Provider, a Adapter) Option {
	return func(d *Dispatcher) { d.adapters[p] = a }
}

// WithKeyResolver sets the credential lookup used when a request has no key.
func WithKeyResolver(k KeyResolver) Option {
	return func(d *Dispatcher) { d.keys = k }
}

// WithTimeout bounds each adapter call. Zero disables it.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// NewDispatcher returns a dispatcher with only the given options applied.
// Use NewDefault for the full provider table.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{adapters: make(map[Provider]Adapter)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves the provider and performs the call.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (string, error) {
	p, model := Resolve(req.Model)
	if p == ProviderUnknown {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, req.Model)
	}

	adapter, ok := d.adapters[p]
	if !ok {
		return "", fmt.Errorf("no adapter registered for %s", p)
	}

	key := req.APIKey
	if key == "" && d.keys != nil && p != ProviderG4F {
		k, err := d.keys(credentialName(p, model))
		if err != nil {
			return "", fmt.Errorf("%s credentials: %w", p, err)
		}
		key = k
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	log := logging.Component("llm").WithField("provider", adapter.Name()).WithField("model", model)
	log.Debug("dispatching inference")
	start := time.Now()

	text, err := adapter.Chat(ctx, Call{
		Model:  model,
		APIKey: key,
		System: req.System,
		Prompt: req.Prompt(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", adapter.Name(), err)
	}

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("inference done")
	return text, nil
}

// UnsupportedModelMessage is the text Infer returns for an unknown model.
// The prefixes are listed bare, [qwen, gpt, ...], not as quoted strings.
// UI and tests match this exact text.
func UnsupportedModelMessage() string {
	return fmt.Sprintf("LLM name error, only [%s] are supported as LLM name prefix.",
		strings.Join(SupportedPrefixes, ", "))
}

// Infer is Dispatch for display: every failure, including a panic inside an
// adapter, comes back as a message string.
func (d *Dispatcher) Infer(ctx context.Context, req Request) (out string) {
	log := logging.Component("llm").WithField("model", req.Model)

	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("LLM inference error: panic: %v", r)
			log.Error(out)
		}
	}()

	text, err := d.Dispatch(ctx, req)
	switch {
	case errors.Is(err, ErrUnsupportedModel):
		out = UnsupportedModelMessage()
		log.Warn(out)
		return out
	case err != nil:
		out = "LLM inference error: " + err.Error()
		log.Error(out)
		return out
	}
	return text
}
