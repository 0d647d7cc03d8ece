package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openaigo "github.com/sashabaranov/go-openai"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

// Цены за миллион токенов для оценочной стоимости запроса
const (
	pricePerMillionInputTokensUSD  = 0.1
	pricePerMillionOutputTokensUSD = 0.4
)

// ErrAIGenerationFailed - ошибка при генерации ответа модели
var ErrAIGenerationFailed = errors.New("ошибка генерации ответа AI")

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_server_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trip_server_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trip_server_ai_total_tokens",
			Help:    "Histogram of total token counts (prompt + completion).",
			Buckets: prometheus.LinearBuckets(350, 350, 20),
		},
		[]string{"model"},
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_server_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of AI requests in USD.",
		},
		[]string{"model"},
	)
)

// UsageInfo содержит информацию об использовании токенов и стоимости
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}

// GenerationParams — параметры генерации. Указатели, чтобы отличить 0/0.0 от отсутствия.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Client — интерфейс для взаимодействия с генеративной моделью.
// Реализация сама выполняет ретраи; вызывающий код получает либо полный
// текст ответа, либо ошибку, обернутую в ErrAIGenerationFailed.
type Client interface {
	// GenerateJSON отправляет системный и пользовательский промпты и возвращает
	// текст ответа (ожидается JSON, но это не гарантируется) и данные об использовании.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, UsageInfo, error)
	ModelName() string
}

// Config содержит конфигурацию клиента модели
type Config struct {
	Provider       string // "openai" или "ollama"
	APIKey         string
	ModelName      string
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	BaseRetryDelay time.Duration
}

// New создает клиент модели в зависимости от конфигурации
func New(cfg Config) (Client, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("не указан API ключ для AI провайдера")
		}
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		log.Info().Str("base_url", openaiConfig.BaseURL).Str("model", cfg.ModelName).Msg("OpenAI клиент создан")
		return &openAIClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			cfg:    cfg,
		}, nil
	case "ollama":
		return newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("неизвестный AI провайдер: '%s'", cfg.Provider)
	}
}

// retryDelay считает задержку перед следующей попыткой: экспонента плюс джиттер.
func retryDelay(base time.Duration, attempt int) time.Duration {
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	jitter := delay * 0.1
	delay += jitter * (rand.Float64()*2 - 1)
	if delay < float64(base) {
		delay = float64(base)
	}
	return time.Duration(delay)
}

// calculateCost рассчитывает оценочную стоимость запроса на основе токенов.
func calculateCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * pricePerMillionInputTokensUSD / 1_000_000.0
	outputCost := float64(completionTokens) * pricePerMillionOutputTokensUSD / 1_000_000.0
	return inputCost + outputCost
}

// estimateTokens дает грубую оценку числа токенов, когда API не вернул usage.
func estimateTokens(text string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// --- OpenAI Client Implementation ---

type openAIClient struct {
	client *openaigo.Client
	cfg    Config
}

func (c *openAIClient) ModelName() string { return c.cfg.ModelName }

// GenerateJSON отправляет запрос с response_format=json_object и ретраями.
func (c *openAIClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: системный промт пуст", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userPrompt,
		})
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		startTime := time.Now()
		log.Info().Int("attempt", attempt).Int("max_attempts", c.cfg.MaxAttempts).
			Str("model", c.cfg.ModelName).Msg("Отправка запроса к AI API")

		requestCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		resp, err := c.client.CreateChatCompletion(requestCtx, openaigo.ChatCompletionRequest{
			Model:       c.cfg.ModelName,
			Messages:    messages,
			Temperature: float32Val(params.Temperature),
			MaxTokens:   intVal(params.MaxTokens),
			TopP:        float32Val(params.TopP),
			ResponseFormat: &openaigo.ChatCompletionResponseFormat{
				Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		cancel()

		duration := time.Since(startTime)

		if err == nil && (len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "") {
			err = fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "error_empty_response"}).Inc()
		} else if err != nil {
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "error"}).Inc()
		}

		if err != nil {
			lastErr = err
			log.Warn().Err(err).Dur("duration", duration).Int("attempt", attempt).Msg("Ошибка вызова AI API")
			if attempt == c.cfg.MaxAttempts {
				break
			}
			wait := retryDelay(c.cfg.BaseRetryDelay, attempt)
			log.Info().Dur("wait", wait).Msg("Ожидание перед следующей попыткой")
			select {
			case <-ctx.Done():
				return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, ctx.Err())
			case <-time.After(wait):
			}
			continue
		}

		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "success"}).Inc()
		aiRequestDuration.With(prometheus.Labels{"model": c.cfg.ModelName}).Observe(duration.Seconds())

		generatedText := resp.Choices[0].Message.Content

		usageInfo.PromptTokens = resp.Usage.PromptTokens
		usageInfo.CompletionTokens = resp.Usage.CompletionTokens
		usageInfo.TotalTokens = resp.Usage.TotalTokens
		if usageInfo.TotalTokens == 0 {
			// Некоторые совместимые API не возвращают usage — оцениваем сами
			usageInfo.PromptTokens = estimateTokens(systemPrompt + userPrompt)
			usageInfo.CompletionTokens = estimateTokens(generatedText)
			usageInfo.TotalTokens = usageInfo.PromptTokens + usageInfo.CompletionTokens
		}
		usageInfo.EstimatedCostUSD = calculateCost(usageInfo.PromptTokens, usageInfo.CompletionTokens)

		if usageInfo.TotalTokens > 0 {
			aiTotalTokens.With(prometheus.Labels{"model": c.cfg.ModelName}).Observe(float64(usageInfo.TotalTokens))
		}
		if usageInfo.EstimatedCostUSD > 0 {
			aiEstimatedCostUSD.With(prometheus.Labels{"model": c.cfg.ModelName}).Add(usageInfo.EstimatedCostUSD)
		}

		log.Info().Dur("duration", duration).Int("length", len(generatedText)).
			Int("total_tokens", usageInfo.TotalTokens).Msg("Ответ от AI API получен")
		return generatedText, usageInfo, nil
	}

	return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, lastErr)
}

// --- Ollama Client Implementation ---

type ollamaClient struct {
	client  *ollamaapi.Client
	cfg     Config
	timeout time.Duration
}

func newOllamaClient(cfg Config) (Client, error) {
	// api.NewClient требует URL без суффикса /v1
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	client := ollamaapi.NewClient(parsedURL, &http.Client{Timeout: cfg.Timeout})
	log.Info().Str("base_url", baseURL).Str("model", cfg.ModelName).Msg("Ollama клиент создан")

	return &ollamaClient{client: client, cfg: cfg, timeout: cfg.Timeout}, nil
}

func (c *ollamaClient) ModelName() string { return c.cfg.ModelName }

func (c *ollamaClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{} // Ollama локальный, стоимость 0

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: системный промт пуст", ErrAIGenerationFailed)
	}

	messages := []ollamaapi.Message{
		{Role: "system", Content: systemPrompt},
	}
	if userPrompt != "" {
		messages = append(messages, ollamaapi.Message{Role: "user", Content: userPrompt})
	}

	req := &ollamaapi.ChatRequest{
		Model:    c.cfg.ModelName,
		Messages: messages,
		Stream:   func(b bool) *bool { return &b }(false),
		Format:   []byte(`"json"`),
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp ollamaapi.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r ollamaapi.ChatResponse) error {
		resp = r // Сохраняем последний (полный) ответ
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Dur("timeout", c.timeout).Dur("duration", duration).Msg("Таймаут запроса к Ollama API")
		}
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "error"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if resp.Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "error_empty_response"}).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.ModelName, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.cfg.ModelName}).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.PromptEvalCount
	usageInfo.CompletionTokens = resp.EvalCount
	usageInfo.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	if usageInfo.TotalTokens > 0 {
		aiTotalTokens.With(prometheus.Labels{"model": c.cfg.ModelName}).Observe(float64(usageInfo.TotalTokens))
	}

	log.Info().Dur("duration", duration).Int("length", len(resp.Message.Content)).Msg("Ответ от Ollama API получен")
	return resp.Message.Content, usageInfo, nil
}
