package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/helmcode/gamemodel-ai/pkg/config"
)

func TestClaudeChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Model != "claude-test" || body.Messages[0].Content != "hello" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Write([]byte(`{"content": [{"type": "text", "text": "{\"ok\": true}"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeWithModel("secret", "claude-test").WithBaseURL(srv.URL)
	got, err := c.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != `{"ok": true}` {
		t.Errorf("Chat = %q", got)
	}
	if c.GetModel() != "claude-test" {
		t.Errorf("GetModel = %q", c.GetModel())
	}
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "answer"}}]}`))
	}))
	defer srv.Close()

	got, err := NewOpenAI("secret").WithBaseURL(srv.URL).Chat(context.Background(), "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "answer" {
		t.Errorf("Chat = %q", got)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "slow down"}}`))
	}))
	defer srv.Close()

	for name, client := range map[string]LLM{
		"claude": NewClaude("k").WithBaseURL(srv.URL),
		"openai": NewOpenAI("k").WithBaseURL(srv.URL),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := client.Chat(context.Background(), "q")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.StatusCode != http.StatusTooManyRequests || !apiErr.Temporary() {
				t.Errorf("unexpected APIError %+v", apiErr)
			}
		})
	}
}

func TestChatHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClaude("k").WithBaseURL(srv.URL).Chat(ctx, "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestFactoryFromConfig(t *testing.T) {
	t.Setenv("CLAUDE_MODEL", "")
	t.Setenv("OPENAI_MODEL", "")
	secrets := map[string]string{}
	f := &Factory{Secret: func(name string) (string, error) { return secrets[name], nil }}

	if _, err := f.FromConfig(config.LLMConfig{Provider: "claude"}); err == nil {
		t.Error("expected an error without an API key")
	}

	secrets["OPENAI_API_KEY"] = "sk"
	l, err := f.FromConfig(config.LLMConfig{})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if l.GetModel() != DefaultOpenAIModel {
		t.Errorf("auto-detected model = %q, want %q", l.GetModel(), DefaultOpenAIModel)
	}

	secrets["ANTHROPIC_API_KEY"] = "ak"
	l, err = f.FromConfig(config.LLMConfig{Model: "claude-custom"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := l.(*Claude); !ok || l.GetModel() != "claude-custom" {
		t.Errorf("got %T %q, want Claude claude-custom", l, l.GetModel())
	}

	l, err = f.FromConfig(config.LLMConfig{Provider: "OpenAI", Model: "gpt-test"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := l.(*OpenAI); !ok || l.GetModel() != "gpt-test" {
		t.Errorf("got %T %q, want OpenAI gpt-test", l, l.GetModel())
	}

	if _, err := f.FromConfig(config.LLMConfig{Provider: "llama"}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}
