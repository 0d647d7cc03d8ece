package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trip-server/pkg/ai"
)

// MockAIClient is a mock type for the ai.Client type
type MockAIClient struct {
	mock.Mock
}

// GenerateJSON provides a mock function with given fields: ctx, systemPrompt, userPrompt, params
func (_m *MockAIClient) GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, systemPrompt, userPrompt, params)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string, ai.GenerationParams) string); ok {
		r0 = rf(ctx, systemPrompt, userPrompt, params)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(string)
		}
	}

	var r1 ai.UsageInfo
	if rf, ok := ret.Get(1).(func(context.Context, string, string, ai.GenerationParams) ai.UsageInfo); ok {
		r1 = rf(ctx, systemPrompt, userPrompt, params)
	} else {
		if ret.Get(1) != nil {
			r1 = ret.Get(1).(ai.UsageInfo)
		}
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(context.Context, string, string, ai.GenerationParams) error); ok {
		r2 = rf(ctx, systemPrompt, userPrompt, params)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// ModelName provides a mock function
func (_m *MockAIClient) ModelName() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.Client = (*MockAIClient)(nil)
