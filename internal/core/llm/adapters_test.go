package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMissingKey(t *testing.T) {
	adapters := []Adapter{&Qwen{}, &OpenAI{}, &Anthropic{}, NewGemini(""), NewDeepseek(""), NewMinimax("")}
	for _, a := range adapters {
		_, err := a.Chat(context.Background(), Call{Model: "m", Prompt: "p"})
		if err == nil || !strings.Contains(err.Error(), "API key not provided") {
			t.Errorf("%s: Chat() error = %v", a.Name(), err)
		}
	}
}

func chatCompletionServer(t *testing.T, reply string, got *map[string]any, auth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		*auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   (*got)["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
}

func TestCompatChat(t *testing.T) {
	var body map[string]any
	var auth string
	srv := chatCompletionServer(t, "ok", &body, &auth)
	defer srv.Close()

	m := NewMinimax(srv.URL)
	got, err := m.Chat(context.Background(), Call{Model: "minimax-abab5.5", APIKey: "mk", System: "sys", Prompt: "p"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Chat() = %q", got)
	}
	if body["model"] != "abab5.5-chat" {
		t.Errorf("model = %v, want abab5.5-chat", body["model"])
	}
	if auth != "Bearer mk" {
		t.Errorf("auth = %q", auth)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", body["messages"])
	}
}

func TestG4FWithoutKey(t *testing.T) {
	var body map[string]any
	var auth string
	srv := chatCompletionServer(t, "free", &body, &auth)
	defer srv.Close()

	g := NewG4F(srv.URL)
	got, err := g.Chat(context.Background(), Call{Model: "gpt-3.5-turbo", Prompt: "p"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "free" || body["model"] != "gpt-3.5-turbo" {
		t.Errorf("Chat() = %q, model = %v", got, body["model"])
	}
}

func TestOpenAIChat(t *testing.T) {
	var body map[string]any
	var auth string
	srv := chatCompletionServer(t, "moon", &body, &auth)
	defer srv.Close()

	o := &OpenAI{BaseURL: "http://127.0.0.1:1/unused", MoonshotBaseURL: srv.URL + "/"}
	got, err := o.Chat(context.Background(), Call{Model: "moonshot-v1-8k", APIKey: "sk", Prompt: "p"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "moon" || auth != "Bearer sk" {
		t.Errorf("Chat() = %q, auth = %q", got, auth)
	}
}

func TestEndToEndThroughDispatcher(t *testing.T) {
	var body map[string]any
	var auth string
	srv := chatCompletionServer(t, "1. [00:01-00:05] hi", &body, &auth)
	defer srv.Close()

	d := NewDispatcher(WithAdapter(ProviderDeepseek, NewDeepseek(srv.URL)))
	got := d.Infer(context.Background(), Request{
		System: DefaultSystemPrompt,
		User:   DefaultUserPrompt,
		Model:  "deepseek-chat",
		APIKey: "dk",
	})
	if got != "1. [00:01-00:05] hi" {
		t.Errorf("Infer() = %q", got)
	}
}

func TestGeminiChat(t *testing.T) {
	var body map[string]any
	var auth string
	srv := chatCompletionServer(t, "1. [00:01-00:05] hello", &body, &auth)
	defer srv.Close()

	g := NewGemini(srv.URL)
	got, err := g.Chat(context.Background(), Call{Model: "gemini-pro", APIKey: "gk", System: "sys", Prompt: "p"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "1. [00:01-00:05] hello" {
		t.Errorf("Chat() = %q", got)
	}
	if body["model"] != "gemini-pro" || auth != "Bearer gk" {
		t.Errorf("model = %v, auth = %q", body["model"], auth)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", body["messages"])
	}
	if NewGemini("").BaseURL != geminiBaseURL {
		t.Errorf("default base URL = %q", NewGemini("").BaseURL)
	}
}

func TestCompatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := NewGemini(srv.URL).Chat(context.Background(), Call{Model: "gemini-pro", APIKey: "k", Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("Chat() error = %v", err)
	}
}
