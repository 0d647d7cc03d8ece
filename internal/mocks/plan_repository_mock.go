package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"trip-server/internal/model"
	"trip-server/internal/repository"
)

// MockPlanRepository is a mock type for the repository.PlanRepository type
type MockPlanRepository struct {
	mock.Mock
}

// SavePlan provides a mock function with given fields: ctx, plan
func (_m *MockPlanRepository) SavePlan(ctx context.Context, plan *model.Plan) error {
	ret := _m.Called(ctx, plan)
	return ret.Error(0)
}

// GetPlanByID provides a mock function with given fields: ctx, planID
func (_m *MockPlanRepository) GetPlanByID(ctx context.Context, planID uuid.UUID) (*model.Plan, error) {
	ret := _m.Called(ctx, planID)

	var r0 *model.Plan
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) *model.Plan); ok {
		r0 = rf(ctx, planID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Plan)
		}
	}

	return r0, ret.Error(1)
}

// ListPlans provides a mock function with given fields: ctx, limit
func (_m *MockPlanRepository) ListPlans(ctx context.Context, limit int) ([]model.PlanListItem, error) {
	ret := _m.Called(ctx, limit)

	var r0 []model.PlanListItem
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.PlanListItem)
	}

	return r0, ret.Error(1)
}

// UpdateDestinationPhotos provides a mock function with given fields: ctx, planID, slug, photoURLs, attribution
func (_m *MockPlanRepository) UpdateDestinationPhotos(ctx context.Context, planID uuid.UUID, slug string, photoURLs []string, attribution string) error {
	ret := _m.Called(ctx, planID, slug, photoURLs, attribution)
	return ret.Error(0)
}

// NewMockPlanRepository creates a new instance of MockPlanRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockPlanRepository(t interface {
	mock.TestingT
	Helper()
}) *MockPlanRepository {
	m := &MockPlanRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.PlanRepository = (*MockPlanRepository)(nil)
