package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trip-server/internal/model"
	"trip-server/internal/service"
)

// MockPlanPublisher is a mock type for the service.PlanPublisher type
type MockPlanPublisher struct {
	mock.Mock
}

// PublishPlanCreated provides a mock function with given fields: ctx, plan
func (_m *MockPlanPublisher) PublishPlanCreated(ctx context.Context, plan *model.Plan) error {
	ret := _m.Called(ctx, plan)
	return ret.Error(0)
}

// NewMockPlanPublisher creates a new instance of MockPlanPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockPlanPublisher(t interface {
	mock.TestingT
	Helper()
}) *MockPlanPublisher {
	m := &MockPlanPublisher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.PlanPublisher = (*MockPlanPublisher)(nil)
