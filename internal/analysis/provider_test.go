package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"calotrack-server-go/internal/domain/meal"
	"calotrack-server-go/internal/platform/config"
)

func TestNewProviderValidation(t *testing.T) {
	if _, err := NewProvider("x", nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewProvider("x", &config.AnalysisConfig{Type: "openai"}, nil); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := NewProvider("x", &config.AnalysisConfig{Type: "carrier-pigeon"}, nil); err == nil {
		t.Error("expected error for unknown provider type")
	}
}

func TestOllamaDefaultsBaseURL(t *testing.T) {
	cfg := &config.AnalysisConfig{Type: "ollama", ModelName: "llava"}
	if _, err := NewProvider("x", cfg, nil); err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected default base url %q", cfg.BaseURL)
	}
}

func TestAnalyzeAgainstOllamaEndpoint(t *testing.T) {
	var captured OllamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}

		var resp OllamaResponse
		resp.Message.Role = "assistant"
		resp.Message.Content = "Here you go:\n```json\n" +
			`{"meal_name":"Pancakes","description":"Stack with syrup","ingredients":[{"name":"Flour","calories":110},"Syrup"]}` +
			"\n```"
		resp.Done = true
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewProvider("test", &config.AnalysisConfig{
		Type:      "ollama",
		ModelName: "llava",
		BaseURL:   server.URL,
	}, nil)
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	raw, err := provider.Analyze(context.Background(), meal.AnalyzeRequest{
		ImageData:  "QUJDRA==",
		Correction: "User notes: extra syrup",
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if raw.MealName != "Pancakes" {
		t.Errorf("unexpected meal name %q", raw.MealName)
	}
	if len(raw.Ingredients) != 2 {
		t.Errorf("expected 2 ingredients, got %d", len(raw.Ingredients))
	}

	if len(captured.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(captured.Messages))
	}
	msg := captured.Messages[0]
	if len(msg.Images) != 1 || msg.Images[0] != "QUJDRA==" {
		t.Error("image should be sent as bare base64")
	}
	if msg.Content == "" {
		t.Error("expected a prompt in the message content")
	}
	if captured.Stream {
		t.Error("expected a non-streaming request")
	}
}

func TestAnalyzeRejectsNonJSONReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var resp OllamaResponse
		resp.Message.Content = "I cannot identify this image."
		resp.Done = true
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewProvider("test", &config.AnalysisConfig{
		Type:      "ollama",
		ModelName: "llava",
		BaseURL:   server.URL,
	}, nil)
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	if _, err := provider.Analyze(context.Background(), meal.AnalyzeRequest{ImageData: "QUJDRA=="}); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestAnalyzeSurfacesUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewProvider("test", &config.AnalysisConfig{
		Type:      "ollama",
		ModelName: "llava",
		BaseURL:   server.URL,
	}, nil)
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	if _, err := provider.Analyze(context.Background(), meal.AnalyzeRequest{ImageData: "QUJDRA=="}); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
