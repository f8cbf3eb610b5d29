package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/guiyumin/vclip/internal/core/logging"
)

func init() {
	logging.SetOutput(io.Discard)
}

type fakeAdapter struct {
	name  string
	reply string
	err   error
	panic any

	calls []Call
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Chat(ctx context.Context, call Call) (string, error) {
	f.calls = append(f.calls, call)
	if f.panic != nil {
		panic(f.panic)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newFakeDispatcher() (*Dispatcher, map[Provider]*fakeAdapter) {
	fakes := make(map[Provider]*fakeAdapter)
	var opts []Option
	for p := ProviderQwen; p <= ProviderMinimax; p++ {
		f := &fakeAdapter{name: p.String(), reply: "from " + p.String()}
		fakes[p] = f
		opts = append(opts, WithAdapter(p, f))
	}
	return NewDispatcher(opts...), fakes
}

func TestResolve(t *testing.T) {
	tests := []struct {
		model     string
		provider  Provider
		wantModel string
	}{
		{"qwen-plus", ProviderQwen, "qwen-plus"},
		{"qwen", ProviderQwen, "qwen"},
		{"gpt-3.5-turbo", ProviderOpenAI, "gpt-3.5-turbo"},
		{"gpt-4-turbo", ProviderOpenAI, "gpt-4-turbo"},
		{"moonshot-v1-8k", ProviderOpenAI, "moonshot-v1-8k"},
		{"g4f-gpt-3.5-turbo", ProviderG4F, "gpt-3.5-turbo"},
		{"g4f", ProviderG4F, ""},
		{"claude-3-opus", ProviderClaude, "claude-3-opus"},
		{"deepseek-chat", ProviderDeepseek, "deepseek-chat"},
		{"deepseek-coder", ProviderUnknown, "deepseek-coder"},
		{"gemini-pro", ProviderGemini, "gemini-pro"},
		{"minimax-abab5.5", ProviderMinimax, "minimax-abab5.5"},
		{"unknown-x", ProviderUnknown, "unknown-x"},
		{"", ProviderUnknown, ""},
		{"GPT-4", ProviderUnknown, "GPT-4"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, m := Resolve(tt.model)
			if p != tt.provider || m != tt.wantModel {
				t.Errorf("Resolve(%q) = (%v, %q), want (%v, %q)", tt.model, p, m, tt.provider, tt.wantModel)
			}
		})
	}
}

func TestInferRoutesEveryPrefix(t *testing.T) {
	tests := []struct {
		model string
		want  Provider
	}{
		{"qwen-plus", ProviderQwen},
		{"gpt-3.5-turbo", ProviderOpenAI},
		{"moonshot-v1-8k", ProviderOpenAI},
		{"g4f-gpt-3.5-turbo", ProviderG4F},
		{"claude-3-sonnet", ProviderClaude},
		{"deepseek-chat", ProviderDeepseek},
		{"gemini-pro", ProviderGemini},
		{"minimax-abab5.5", ProviderMinimax},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			d, fakes := newFakeDispatcher()
			got := d.Infer(context.Background(), Request{Model: tt.model, APIKey: "k"})
			if got != "from "+tt.want.String() {
				t.Errorf("Infer(%q) = %q", tt.model, got)
			}
			for p, f := range fakes {
				n := len(f.calls)
				if p == tt.want && n != 1 {
					t.Errorf("%s adapter called %d times, want 1", p, n)
				}
				if p != tt.want && n != 0 {
					t.Errorf("%s adapter called for %q", p, tt.model)
				}
			}
		})
	}
}

func TestInferUnknownModel(t *testing.T) {
	d, fakes := newFakeDispatcher()
	got := d.Infer(context.Background(), Request{Model: "unknown-x"})

	want := "LLM name error, only [qwen, gpt, g4f, moonshot, claude, deepseek, gemini, minimax] are supported as LLM name prefix."
	if got != want {
		t.Errorf("Infer() = %q, want %q", got, want)
	}
	for p, f := range fakes {
		if len(f.calls) != 0 {
			t.Errorf("%s adapter should not be called", p)
		}
	}
}

func TestDispatchUnknownModel(t *testing.T) {
	d, _ := newFakeDispatcher()
	_, err := d.Dispatch(context.Background(), Request{Model: "llama-3"})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("Dispatch() error = %v, want ErrUnsupportedModel", err)
	}
}

func TestG4FReceivesStrippedModel(t *testing.T) {
	d, fakes := newFakeDispatcher()
	d.Infer(context.Background(), Request{Model: "g4f-gpt-3.5-turbo"})

	calls := fakes[ProviderG4F].calls
	if len(calls) != 1 {
		t.Fatalf("g4f calls = %d, want 1", len(calls))
	}
	if calls[0].Model != "gpt-3.5-turbo" {
		t.Errorf("model = %q, want gpt-3.5-turbo", calls[0].Model)
	}
}

func TestPromptJoinsUserAndTranscript(t *testing.T) {
	d, fakes := newFakeDispatcher()
	d.Infer(context.Background(), Request{
		System:     "sys",
		User:       "clip this:",
		Transcript: "1\n00:00:01,000 --> 00:00:02,000\nhi",
		Model:      "qwen-plus",
		APIKey:     "k",
	})

	call := fakes[ProviderQwen].calls[0]
	if call.System != "sys" {
		t.Errorf("system = %q", call.System)
	}
	if call.Prompt != "clip this:\n1\n00:00:01,000 --> 00:00:02,000\nhi" {
		t.Errorf("prompt = %q", call.Prompt)
	}
	if call.APIKey != "k" {
		t.Errorf("api key = %q", call.APIKey)
	}
}

func TestInferAdapterError(t *testing.T) {
	d, fakes := newFakeDispatcher()
	fakes[ProviderDeepseek].err = errors.New("401 invalid api key")

	got := d.Infer(context.Background(), Request{Model: "deepseek-chat"})
	if !strings.HasPrefix(got, "LLM inference error: ") {
		t.Errorf("Infer() = %q, want inference error prefix", got)
	}
	if !strings.Contains(got, "401 invalid api key") {
		t.Errorf("Infer() = %q, want reason", got)
	}
}

func TestInferAdapterPanic(t *testing.T) {
	d, fakes := newFakeDispatcher()
	fakes[ProviderGemini].panic = "index out of range"

	got := d.Infer(context.Background(), Request{Model: "gemini-pro"})
	if !strings.HasPrefix(got, "LLM inference error: ") || !strings.Contains(got, "index out of range") {
		t.Errorf("Infer() = %q", got)
	}
}

func TestKeyResolver(t *testing.T) {
	var asked []string
	resolver := func(name string) (string, error) {
		asked = append(asked, name)
		return "key-" + name, nil
	}

	d, fakes := newFakeDispatcher()
	WithKeyResolver(resolver)(d)

	d.Infer(context.Background(), Request{Model: "moonshot-v1-8k"})
	d.Infer(context.Background(), Request{Model: "claude-3-opus"})
	d.Infer(context.Background(), Request{Model: "g4f-gpt-4"})
	d.Infer(context.Background(), Request{Model: "gpt-4", APIKey: "explicit"})

	if got := strings.Join(asked, ","); got != "moonshot,claude" {
		t.Errorf("resolver asked for %q, want moonshot,claude", got)
	}
	if k := fakes[ProviderOpenAI].calls[0].APIKey; k != "key-moonshot" {
		t.Errorf("moonshot key = %q", k)
	}
	if k := fakes[ProviderOpenAI].calls[1].APIKey; k != "explicit" {
		t.Errorf("explicit key = %q", k)
	}
	if k := fakes[ProviderG4F].calls[0].APIKey; k != "" {
		t.Errorf("g4f key = %q, want empty", k)
	}
}

func TestKeyResolverError(t *testing.T) {
	d, fakes := newFakeDispatcher()
	WithKeyResolver(func(string) (string, error) { return "", errors.New("invalid PIN") })(d)

	got := d.Infer(context.Background(), Request{Model: "qwen-plus"})
	if !strings.Contains(got, "invalid PIN") {
		t.Errorf("Infer() = %q", got)
	}
	if len(fakes[ProviderQwen].calls) != 0 {
		t.Error("adapter should not be called without credentials")
	}
}

type slowAdapter struct{}

func (slowAdapter) Name() string { return "slow" }

func (slowAdapter) Chat(ctx context.Context, _ Call) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestTimeout(t *testing.T) {
	d := NewDispatcher(
		WithAdapter(ProviderQwen, slowAdapter{}),
		WithTimeout(20*time.Millisecond),
	)

	got := d.Infer(context.Background(), Request{Model: "qwen-max", APIKey: "k"})
	if !strings.Contains(got, "deadline exceeded") {
		t.Errorf("Infer() = %q, want deadline exceeded", got)
	}
}

func TestMissingAdapter(t *testing.T) {
	d := NewDispatcher()
	got := d.Infer(context.Background(), Request{Model: "qwen-plus"})
	if !strings.Contains(got, "no adapter registered for qwen") {
		t.Errorf("Infer() = %q", got)
	}
}

func TestModelsResolve(t *testing.T) {
	for _, m := range Models {
		p, _ := Resolve(m.ID)
		if p == ProviderUnknown {
			t.Errorf("catalogue model %q does not route", m.ID)
		}
		if p.String() != m.Provider {
			t.Errorf("model %q routes to %s, catalogue says %s", m.ID, p, m.Provider)
		}
	}
}
