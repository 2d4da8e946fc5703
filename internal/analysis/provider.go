package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"calotrack-server-go/internal/domain/meal"
	"calotrack-server-go/internal/platform/config"
	"calotrack-server-go/internal/platform/errors"
	"calotrack-server-go/internal/platform/logging"
)

// Provider calls a vision-capable model and decodes its response into the
// loose analysis IR. Supports OpenAI-compatible endpoints and Ollama.
type Provider struct {
	name   string
	config *config.AnalysisConfig
	logger *logging.Logger

	openaiClient *openai.Client
	httpClient   *http.Client
}

// OllamaRequest is the Ollama /api/chat request shape.
type OllamaRequest struct {
	Model    string                 `json:"model"`
	Messages []OllamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// OllamaMessage carries text plus optional base64 images.
type OllamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// OllamaResponse is the non-streaming Ollama /api/chat response shape.
type OllamaResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// NewProvider builds a provider from a named analysis configuration.
func NewProvider(name string, cfg *config.AnalysisConfig, logger *logging.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "analysis.new", "analysis configuration is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	p := &Provider{
		name:       name,
		config:     cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	switch strings.ToLower(cfg.Type) {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New(errors.KindConfig, "analysis.new", "OpenAI API key is required")
		}
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		p.openaiClient = openai.NewClientWithConfig(clientConfig)

	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}

	default:
		return nil, errors.New(errors.KindConfig, "analysis.new",
			fmt.Sprintf("unsupported analysis provider type: %s", cfg.Type))
	}

	logger.InfoTag("Analysis", "provider ready: name=%s type=%s model=%s", name, cfg.Type, cfg.ModelName)
	return p, nil
}

// Analyze sends the meal image, plus an optional correction summary, to the
// configured model and normalizes the reply into the analysis IR.
func (p *Provider) Analyze(ctx context.Context, req meal.AnalyzeRequest) (*meal.RawAnalysis, error) {
	prompt := BuildPrompt(PromptInput{
		Language:   firstNonEmpty(req.Language, p.config.Language),
		Correction: req.Correction,
	})

	p.logger.DebugTag("Analysis", "invoke vision model: type=%s model=%s correction=%v image_chars=%d",
		p.config.Type, p.config.ModelName, req.Correction != "", len(req.ImageData))

	var (
		content string
		err     error
	)
	switch strings.ToLower(p.config.Type) {
	case "openai":
		content, err = p.completeOpenAI(ctx, prompt, req.ImageData, req.Format)
	case "ollama":
		content, err = p.completeOllama(ctx, prompt, req.ImageData)
	default:
		return nil, errors.New(errors.KindAnalysis, "analysis.analyze",
			fmt.Sprintf("unsupported analysis provider type: %s", p.config.Type))
	}
	if err != nil {
		return nil, err
	}

	doc, ok := ExtractJSON(content)
	if !ok {
		p.logger.WarnTag("Analysis", "model reply contained no JSON document: reply_length=%d", len(content))
		return nil, errors.New(errors.KindAnalysis, "analysis.analyze", "model reply contained no JSON document")
	}

	raw, err := meal.DecodeRawAnalysis([]byte(doc))
	if err != nil {
		return nil, errors.Wrap(errors.KindAnalysis, "analysis.analyze", "decode model reply", err)
	}
	return raw, nil
}

func (p *Provider) completeOpenAI(ctx context.Context, prompt, base64Image, format string) (string, error) {
	if format == "" {
		format = "jpeg"
	}

	request := openai.ChatCompletionRequest{
		Model: p.config.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:image/%s;base64,%s", format, base64Image),
						},
					},
				},
			},
		},
		Temperature: float32(p.config.Temperature),
	}
	if p.config.MaxTokens > 0 {
		request.MaxTokens = p.config.MaxTokens
	}

	resp, err := p.openaiClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", errors.Wrap(errors.KindAnalysis, "analysis.openai", "vision API call failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindAnalysis, "analysis.openai", "vision API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) completeOllama(ctx context.Context, prompt, base64Image string) (string, error) {
	request := OllamaRequest{
		Model: p.config.ModelName,
		Messages: []OllamaMessage{
			{
				Role:    "user",
				Content: prompt,
				// Ollama wants the bare base64 payload, no data URL prefix.
				Images: []string{base64Image},
			},
		},
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": p.config.Temperature,
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", errors.Wrap(errors.KindAnalysis, "analysis.ollama", "marshal request", err)
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimSuffix(p.config.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", errors.Wrap(errors.KindAnalysis, "analysis.ollama", "create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(errors.KindAnalysis, "analysis.ollama", "vision API call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", errors.New(errors.KindAnalysis, "analysis.ollama",
			fmt.Sprintf("vision API returned status %d", resp.StatusCode))
	}

	var ollamaResp OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", errors.Wrap(errors.KindAnalysis, "analysis.ollama", "decode response", err)
	}
	return ollamaResp.Message.Content, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
