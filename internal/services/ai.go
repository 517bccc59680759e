package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// CompletionService relays a prompt to the model a routing decision
// selected. It is only used by the combined route-and-complete endpoint;
// the plain routing endpoint never touches a provider.
type CompletionService struct {
	providers *config.ProvidersConfig
}

func NewCompletionService(providers *config.ProvidersConfig) *CompletionService {
	return &CompletionService{providers: providers}
}

type CompletionRequest struct {
	Provider string
	Model    string
	Prompt   string
	Context  string
}

// CompletionResult carries the provider response plus the token usage
// needed to price the call.
type CompletionResult struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	LatencyMs        int64  `json:"latency_ms"`
}

// Complete dispatches to the provider-specific call based on the Provider
// field of the selected candidate.
func (s *CompletionService) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	creds, ok := s.providers.ProviderFor(req.Provider)
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", req.Provider)
	}

	logger.Infof("[AI] Dispatching completion to provider: %s, model: %s", req.Provider, req.Model)

	start := time.Now()
	var (
		result *CompletionResult
		err    error
	)
	switch req.Provider {
	case "anthropic":
		result, err = s.callAnthropic(ctx, creds, req)
	case "ollama":
		result, err = s.callOllama(ctx, creds, req)
	case "gemini", "google":
		result, err = s.callGemini(ctx, creds, req)
	case "azure":
		result, err = s.callAzure(ctx, creds, req)
	default:
		// openai and OpenAI-compatible endpoints
		result, err = s.callOpenAI(ctx, creds, req)
	}
	if err != nil {
		return nil, err
	}

	result.LatencyMs = time.Since(start).Milliseconds()
	return result, nil
}

// fullPrompt joins the caller-supplied context and prompt the same way
// the analyzer counted them.
func fullPrompt(req *CompletionRequest) string {
	if req.Context == "" {
		return req.Prompt
	}
	return req.Context + "\n\n" + req.Prompt
}

func (s *CompletionService) callOpenAI(ctx context.Context, creds config.ProviderConfig, req *CompletionRequest) (*CompletionResult, error) {
	clientConfig := openai.DefaultConfig(creds.APIKey)
	if creds.BaseURL != "" {
		clientConfig.BaseURL = creds.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fullPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &CompletionResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (s *CompletionService) callAzure(ctx context.Context, creds config.ProviderConfig, req *CompletionRequest) (*CompletionResult, error) {
	// Azure uses the model name as the deployment name and requires
	// BaseURL in the form https://{resource}.openai.azure.com.
	clientConfig := openai.DefaultAzureConfig(creds.APIKey, creds.BaseURL)
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fullPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Azure OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Azure OpenAI")
	}

	return &CompletionResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (s *CompletionService) callAnthropic(ctx context.Context, creds config.ProviderConfig, req *CompletionRequest) (*CompletionResult, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(creds.APIKey),
	)

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fullPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResult{
		Content:          content.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func (s *CompletionService) callOllama(ctx context.Context, creds config.ProviderConfig, req *CompletionRequest) (*CompletionResult, error) {
	baseURL := creds.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	var content strings.Builder
	var promptTokens, completionTokens int
	err = client.Chat(ctx, &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{Role: "user", Content: fullPrompt(req)},
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			promptTokens = resp.Metrics.PromptEvalCount
			completionTokens = resp.Metrics.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Ollama API error: %w", err)
	}

	return &CompletionResult{
		Content:          content.String(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

func (s *CompletionService) callGemini(ctx context.Context, creds config.ProviderConfig, req *CompletionRequest) (*CompletionResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: creds.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini client error: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(fullPrompt(req)), nil)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	result := &CompletionResult{Content: resp.Text()}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}
