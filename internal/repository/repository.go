package repository

import (
	"context"

	"github.com/google/uuid"

	"trip-server/internal/model"
)

// PlanRepository определяет контракт хранилища планов поездок.
type PlanRepository interface {
	// SavePlan атомарно сохраняет план вместе со всеми направлениями.
	SavePlan(ctx context.Context, plan *model.Plan) error
	// GetPlanByID возвращает план со всеми направлениями.
	GetPlanByID(ctx context.Context, planID uuid.UUID) (*model.Plan, error)
	// ListPlans возвращает краткие записи о последних планах.
	ListPlans(ctx context.Context, limit int) ([]model.PlanListItem, error)
	// UpdateDestinationPhotos дописывает ссылки на фотографии после обогащения.
	UpdateDestinationPhotos(ctx context.Context, planID uuid.UUID, slug string, photoURLs []string, attribution string) error
}
