package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"trip-server/internal/mocks"
	"trip-server/internal/model"
	"trip-server/internal/service"
	"trip-server/pkg/ai"
)

func testRequest() model.GeneratePlanRequest {
	return model.GeneratePlanRequest{
		Travelers: []model.Traveler{
			{Name: "Alex", HomeLocation: "LAX", SpouseName: "Dana", KidsCount: "1", IsRequester: true},
			{Name: "Sam", HomeLocation: "SEA"},
		},
		Timeframe: model.Timeframe{StartMonth: "2026-06", EndMonth: "2026-08"},
	}
}

// validModelJSON собирает корректный ответ модели с пятью направлениями.
func validModelJSON(t *testing.T) string {
	t.Helper()
	names := []string{"Lisbon", "Oaxaca", "Kyoto", "Tbilisi", "Cape Town"}
	dests := make([]map[string]interface{}, 0, len(names))
	for i, name := range names {
		dests = append(dests, map[string]interface{}{
			"name":      name,
			"narrative": name + " works well for this group.",
			"per_traveler_fares": []map[string]interface{}{
				{"travelerName": "Alex", "from": "LAX", "avgUSD": 400 + i*50},
				{"travelerName": "Sam", "avgUSD": 380 + i*50},
			},
			"months": []map[string]interface{}{
				{"month": "June", "note": "pleasant"},
			},
		})
	}
	payload := map[string]interface{}{
		"destinations":         dests,
		"group_fit":            map[string]interface{}{"summary": "Everyone gets something."},
		"final_recommendation": "Lisbon balances price and interests best.",
	}
	data, err := json.Marshal(payload)
	assert.NoError(t, err)
	return string(data)
}

func TestPlanService_GeneratePlan(t *testing.T) {
	logger := zap.NewNop()

	t.Run("Successful pipeline saves and returns the plan", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		rawJSON := validModelJSON(t)
		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(rawJSON, ai.UsageInfo{TotalTokens: 1500}, nil).Once()
		mockAI.On("ModelName").Return("test-model")

		var savedPlan *model.Plan
		mockRepo.On("SavePlan", mock.Anything, mock.AnythingOfType("*model.Plan")).
			Run(func(args mock.Arguments) {
				savedPlan = args.Get(1).(*model.Plan)
			}).
			Return(nil).Once()

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		plan, err := svc.GeneratePlan(context.Background(), testRequest())

		assert.NoError(t, err)
		assert.NotNil(t, plan)
		assert.Equal(t, savedPlan, plan)
		assert.Len(t, plan.Destinations, 5)
		assert.Equal(t, "test-model", plan.ModelName)
		assert.Equal(t, rawJSON, plan.RawModelOutput)
		assert.NotEmpty(t, plan.NormalizedOutput)
		assert.Len(t, plan.Summary, 5)
		// Сводка отсортирована по возрастанию, Lisbon самый дешевый
		assert.Equal(t, "lisbon", plan.Summary[0].Slug)
		assert.Equal(t, "Lisbon balances price and interests best.", plan.FinalRecommendation)

		mockAI.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Sparse model output is padded and repaired", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		// Усеченный ответ с одним направлением и без финальной рекомендации
		raw := "```json\n" + `{"options": [{"name": "Lisbon", "per_traveler_fares": {"Alex": 320, "Sam": {"avgUSD": 510}}` + "\n```"
		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(raw, ai.UsageInfo{}, nil).Once()
		mockAI.On("ModelName").Return("test-model")
		mockRepo.On("SavePlan", mock.Anything, mock.Anything).Return(nil).Once()

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		plan, err := svc.GeneratePlan(context.Background(), testRequest())

		assert.NoError(t, err)
		assert.Len(t, plan.Destinations, 5)
		assert.Equal(t, "Lisbon", plan.Destinations[0].Name)
		// Map-форма тарифов нормализована и отсортирована по имени
		assert.Len(t, plan.Destinations[0].Fares, 2)
		assert.Equal(t, "Alex", plan.Destinations[0].Fares[0].TravelerName)
		assert.Equal(t, "LAX", plan.Destinations[0].Fares[0].From)
		// Рекомендация синтезирована из самого дешевого направления
		assert.Contains(t, plan.FinalRecommendation, "Lisbon")
	})

	t.Run("Empty traveler list is rejected before calling the model", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		req := testRequest()
		req.Travelers = nil
		_, err := svc.GeneratePlan(context.Background(), req)

		assert.True(t, errors.Is(err, model.ErrInvalidInput))
		mockAI.AssertNotCalled(t, "GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AI failure maps to generation error", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", ai.UsageInfo{}, fmt.Errorf("%w: boom", ai.ErrAIGenerationFailed)).Once()

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		_, err := svc.GeneratePlan(context.Background(), testRequest())

		assert.True(t, errors.Is(err, model.ErrGenerationFailed))
		mockRepo.AssertNotCalled(t, "SavePlan", mock.Anything, mock.Anything)
	})

	t.Run("Unusable model output maps to empty output error", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Sorry, I cannot plan trips.", ai.UsageInfo{}, nil).Once()

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		_, err := svc.GeneratePlan(context.Background(), testRequest())

		assert.True(t, errors.Is(err, model.ErrEmptyModelOutput))
		mockRepo.AssertNotCalled(t, "SavePlan", mock.Anything, mock.Anything)
	})

	t.Run("Schema violation is rejected without persistence", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		// Битый URL фотографии проходит сборку, но отклоняется валидатором
		raw := `{"destinations": [{"name": "Lisbon", "photo_urls": ["not a url"]}]}`
		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(raw, ai.UsageInfo{}, nil).Once()

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		_, err := svc.GeneratePlan(context.Background(), testRequest())

		assert.True(t, errors.Is(err, model.ErrSchemaViolation))
		var sve *model.SchemaViolationError
		assert.True(t, errors.As(err, &sve))
		assert.NotEmpty(t, sve.Issues)
		mockRepo.AssertNotCalled(t, "SavePlan", mock.Anything, mock.Anything)
	})

	t.Run("Repository failure maps to persistence error", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)

		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(validModelJSON(t), ai.UsageInfo{}, nil).Once()
		mockAI.On("ModelName").Return("test-model")
		mockRepo.On("SavePlan", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		svc := service.NewPlanService(mockAI, mockRepo, nil, nil, logger)
		_, err := svc.GeneratePlan(context.Background(), testRequest())

		assert.True(t, errors.Is(err, model.ErrPersistence))
	})

	t.Run("Publisher is notified after a successful save", func(t *testing.T) {
		mockAI := mocks.NewMockAIClient(t)
		mockRepo := mocks.NewMockPlanRepository(t)
		mockPublisher := mocks.NewMockPlanPublisher(t)

		published := make(chan struct{})
		mockAI.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(validModelJSON(t), ai.UsageInfo{}, nil).Once()
		mockAI.On("ModelName").Return("test-model")
		mockRepo.On("SavePlan", mock.Anything, mock.Anything).Return(nil).Once()
		mockPublisher.On("PublishPlanCreated", mock.Anything, mock.AnythingOfType("*model.Plan")).
			Run(func(args mock.Arguments) { close(published) }).
			Return(nil).Once()

		svc := service.NewPlanService(mockAI, mockRepo, mockPublisher, nil, logger)
		_, err := svc.GeneratePlan(context.Background(), testRequest())
		assert.NoError(t, err)

		<-published
		mockPublisher.AssertExpectations(t)
	})
}
