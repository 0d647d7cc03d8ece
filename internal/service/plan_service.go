package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"trip-server/internal/model"
	"trip-server/internal/repository"
	"trip-server/pkg/ai"
)

var (
	plansGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_server_plans_generated_total",
			Help: "Total number of plan generation attempts by outcome.",
		},
		[]string{"status"},
	)
	pipelineFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_server_pipeline_failures_total",
			Help: "Plan pipeline failures by stage.",
		},
		[]string{"stage"},
	)
	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trip_server_plan_pipeline_duration_seconds",
			Help:    "End-to-end duration of plan generation.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

// PlanPublisher публикует событие о созданном плане. Сбой публикации
// не влияет на результат запроса.
type PlanPublisher interface {
	PublishPlanCreated(ctx context.Context, plan *model.Plan) error
}

// PlanEnricher дополняет сохраненный план фотографиями направлений.
type PlanEnricher interface {
	EnrichPlan(ctx context.Context, plan *model.Plan)
}

// PlanService управляет конвейером генерации плана:
// промт -> модель -> починка JSON -> сборка -> валидация -> агрегация -> сохранение.
type PlanService struct {
	aiClient  ai.Client
	repo      repository.PlanRepository
	publisher PlanPublisher
	enricher  PlanEnricher
	logger    *zap.Logger
	genParams ai.GenerationParams
}

// NewPlanService создает сервис планирования. publisher и enricher опциональны.
func NewPlanService(aiClient ai.Client, repo repository.PlanRepository, publisher PlanPublisher, enricher PlanEnricher, logger *zap.Logger) *PlanService {
	temperature := 0.7
	maxTokens := 8192
	return &PlanService{
		aiClient:  aiClient,
		repo:      repo,
		publisher: publisher,
		enricher:  enricher,
		logger:    logger.Named("plan_service"),
		genParams: ai.GenerationParams{
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		},
	}
}

// GeneratePlan выполняет полный конвейер и возвращает сохраненный план.
// Невалидный по схеме план в базу не попадает.
func (s *PlanService) GeneratePlan(ctx context.Context, req model.GeneratePlanRequest) (*model.Plan, error) {
	start := time.Now()
	log := s.logger.With(zap.Int("travelers", len(req.Travelers)))

	if err := validateRequest(req); err != nil {
		pipelineFailuresTotal.With(prometheus.Labels{"stage": "input"}).Inc()
		plansGeneratedTotal.With(prometheus.Labels{"status": "invalid_input"}).Inc()
		return nil, err
	}

	userPrompt := BuildUserPrompt(req.Travelers, req.Timeframe)
	if strings.TrimSpace(req.Suggestions) != "" {
		userPrompt += "\nAdditional wishes from the requester: " + strings.TrimSpace(req.Suggestions)
	}

	rawOutput, usage, err := s.aiClient.GenerateJSON(ctx, BuildSystemPrompt(), userPrompt, s.genParams)
	if err != nil {
		log.Error("AI generation failed", zap.Error(err))
		pipelineFailuresTotal.With(prometheus.Labels{"stage": "generation"}).Inc()
		plansGeneratedTotal.With(prometheus.Labels{"status": "generation_failed"}).Inc()
		return nil, fmt.Errorf("%w: %v", model.ErrGenerationFailed, err)
	}
	log.Info("Model output received",
		zap.Int("length", len(rawOutput)),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Float64("estimated_cost_usd", usage.EstimatedCostUSD))

	tree, err := RepairModelOutput(rawOutput)
	if err != nil {
		log.Warn("Model output could not be repaired", zap.Error(err), zap.Int("raw_length", len(rawOutput)))
		pipelineFailuresTotal.With(prometheus.Labels{"stage": "repair"}).Inc()
		plansGeneratedTotal.With(prometheus.Labels{"status": "empty_output"}).Inc()
		return nil, err
	}

	doc, err := BuildPlanDocument(tree, req.Travelers, req.Timeframe)
	if err != nil {
		log.Warn("Model output has no usable destinations", zap.Error(err))
		pipelineFailuresTotal.With(prometheus.Labels{"stage": "assembly"}).Inc()
		plansGeneratedTotal.With(prometheus.Labels{"status": "empty_output"}).Inc()
		return nil, err
	}

	if err := ValidatePlanDocument(doc); err != nil {
		var sve *model.SchemaViolationError
		if errors.As(err, &sve) {
			log.Warn("Normalized document failed schema validation",
				zap.Strings("issues", sve.Issues), zap.String("dump", sve.Dump))
		}
		pipelineFailuresTotal.With(prometheus.Labels{"stage": "validation"}).Inc()
		plansGeneratedTotal.With(prometheus.Labels{"status": "schema_violation"}).Inc()
		return nil, err
	}

	summary := SummarizeCosts(doc.Destinations, req.Travelers)

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal normalized document: %w", err)
	}

	plan := &model.Plan{
		ID:                  uuid.New(),
		FinalRecommendation: doc.FinalRecommendation,
		GroupFit:            doc.GroupFit,
		Destinations:        doc.Destinations,
		Travelers:           req.Travelers,
		Timeframe:           req.Timeframe,
		Suggestions:         req.Suggestions,
		ModelName:           s.aiClient.ModelName(),
		RawModelOutput:      rawOutput,
		NormalizedOutput:    normalized,
		Summary:             summary,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.repo.SavePlan(ctx, plan); err != nil {
		log.Error("Failed to persist plan", zap.Error(err))
		pipelineFailuresTotal.With(prometheus.Labels{"stage": "persistence"}).Inc()
		plansGeneratedTotal.With(prometheus.Labels{"status": "persistence_failed"}).Inc()
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	plansGeneratedTotal.With(prometheus.Labels{"status": "success"}).Inc()
	pipelineDuration.Observe(time.Since(start).Seconds())
	log.Info("Plan generated and saved",
		zap.String("plan_id", plan.ID.String()),
		zap.Duration("duration", time.Since(start)))

	s.afterSave(plan)
	return plan, nil
}

// afterSave запускает необязательные шаги: обогащение фотографиями
// и публикацию события. Ошибки здесь только логируются.
func (s *PlanService) afterSave(plan *model.Plan) {
	if s.publisher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.publisher.PublishPlanCreated(ctx, plan); err != nil {
				s.logger.Warn("Failed to publish plan.created event",
					zap.String("plan_id", plan.ID.String()), zap.Error(err))
			}
		}()
	}
	if s.enricher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			s.enricher.EnrichPlan(ctx, plan)
		}()
	}
}

// GetPlan возвращает сохраненный план по идентификатору.
func (s *PlanService) GetPlan(ctx context.Context, planID uuid.UUID) (*model.Plan, error) {
	plan, err := s.repo.GetPlanByID(ctx, planID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return plan, nil
}

// ListPlans возвращает последние планы.
func (s *PlanService) ListPlans(ctx context.Context, limit int) ([]model.PlanListItem, error) {
	items, err := s.repo.ListPlans(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return items, nil
}

// validateRequest проверяет вход до обращения к модели.
func validateRequest(req model.GeneratePlanRequest) error {
	if len(req.Travelers) == 0 {
		return fmt.Errorf("%w: travelers list is empty", model.ErrInvalidInput)
	}
	for i, t := range req.Travelers {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: traveler %d has no name", model.ErrInvalidInput, i)
		}
	}
	if strings.TrimSpace(req.Timeframe.StartMonth) == "" || strings.TrimSpace(req.Timeframe.EndMonth) == "" {
		return fmt.Errorf("%w: timeframe is incomplete", model.ErrInvalidInput)
	}
	return nil
}
