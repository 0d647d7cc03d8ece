package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trip-server/internal/model"
)

// PostgresPlanRepository реализует PlanRepository поверх PostgreSQL.
type PostgresPlanRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresPlanRepository создает репозиторий планов.
func NewPostgresPlanRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresPlanRepository {
	if db == nil {
		panic("nil db pool provided to plan repository")
	}
	return &PostgresPlanRepository{
		db:     db,
		logger: logger.Named("plan_repository"),
	}
}

// SavePlan сохраняет план и его направления в одной транзакции.
// План без пяти направлений в базу не попадает.
func (r *PostgresPlanRepository) SavePlan(ctx context.Context, plan *model.Plan) error {
	log := r.logger.With(zap.String("plan_id", plan.ID.String()))

	travelersData, err := json.Marshal(plan.Travelers)
	if err != nil {
		return fmt.Errorf("failed to marshal travelers: %w", err)
	}
	groupFitData, err := json.Marshal(plan.GroupFit)
	if err != nil {
		return fmt.Errorf("failed to marshal group fit: %w", err)
	}
	summaryData, err := json.Marshal(plan.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertPlanQuery := `
		INSERT INTO plans (
			id, final_recommendation, group_fit, travelers,
			start_month, end_month, suggestions, model_name,
			raw_model_output, normalized_output, summary, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, insertPlanQuery,
		plan.ID, plan.FinalRecommendation, groupFitData, travelersData,
		plan.Timeframe.StartMonth, plan.Timeframe.EndMonth, plan.Suggestions, plan.ModelName,
		plan.RawModelOutput, plan.NormalizedOutput, summaryData, plan.CreatedAt,
	)
	if err != nil {
		log.Error("Failed to insert plan row", zap.Error(err))
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	insertDestQuery := `
		INSERT INTO plan_destinations (plan_id, position, name, slug, payload, totals)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, dest := range plan.Destinations {
		payload, err := json.Marshal(dest)
		if err != nil {
			return fmt.Errorf("failed to marshal destination %q: %w", dest.Slug, err)
		}
		totalsData, err := json.Marshal(model.TotalsBySlug(plan.Summary, dest.Slug))
		if err != nil {
			return fmt.Errorf("failed to marshal destination totals %q: %w", dest.Slug, err)
		}
		_, err = tx.Exec(ctx, insertDestQuery, plan.ID, i, dest.Name, dest.Slug, payload, totalsData)
		if err != nil {
			log.Error("Failed to insert destination row", zap.String("slug", dest.Slug), zap.Error(err))
			return fmt.Errorf("failed to insert destination %q: %w", dest.Slug, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit plan transaction: %w", err)
	}

	log.Info("Plan saved", zap.Int("destinations", len(plan.Destinations)))
	return nil
}

// GetPlanByID возвращает план вместе с направлениями в исходном порядке.
func (r *PostgresPlanRepository) GetPlanByID(ctx context.Context, planID uuid.UUID) (*model.Plan, error) {
	log := r.logger.With(zap.String("plan_id", planID.String()))

	planQuery := `
		SELECT id, final_recommendation, group_fit, travelers,
		       start_month, end_month, suggestions, model_name, summary, created_at
		FROM plans
		WHERE id = $1
	`
	var plan model.Plan
	var groupFitData, travelersData, summaryData []byte
	row := r.db.QueryRow(ctx, planQuery, planID)
	err := row.Scan(
		&plan.ID, &plan.FinalRecommendation, &groupFitData, &travelersData,
		&plan.Timeframe.StartMonth, &plan.Timeframe.EndMonth,
		&plan.Suggestions, &plan.ModelName, &summaryData, &plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		log.Error("Failed to query plan", zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if len(groupFitData) > 0 {
		if err := json.Unmarshal(groupFitData, &plan.GroupFit); err != nil {
			return nil, fmt.Errorf("failed to unmarshal group fit: %w", err)
		}
	}
	if err := json.Unmarshal(travelersData, &plan.Travelers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal travelers: %w", err)
	}
	if err := json.Unmarshal(summaryData, &plan.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	destQuery := `
		SELECT payload, photo_urls, photo_attribution
		FROM plan_destinations
		WHERE plan_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, destQuery, planID)
	if err != nil {
		log.Error("Failed to query destinations", zap.Error(err))
		return nil, fmt.Errorf("failed to get plan destinations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		var photoData []byte
		var attribution *string
		if err := rows.Scan(&payload, &photoData, &attribution); err != nil {
			return nil, fmt.Errorf("failed to scan destination row: %w", err)
		}
		var dest model.Destination
		if err := json.Unmarshal(payload, &dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal destination payload: %w", err)
		}
		// Фотографии дописываются после сохранения плана, поэтому колонки
		// имеют приоритет над снимком в payload.
		if len(photoData) > 0 {
			var photos []string
			if err := json.Unmarshal(photoData, &photos); err == nil && len(photos) > 0 {
				dest.PhotoURLs = photos
				dest.Enrichments.PhotoURLs = photos
			}
		}
		if attribution != nil && *attribution != "" {
			dest.PhotoAttribution = *attribution
			dest.Enrichments.PhotoAttribution = *attribution
		}
		plan.Destinations = append(plan.Destinations, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate destination rows: %w", err)
	}

	return &plan, nil
}

// ListPlans возвращает последние планы без направлений.
func (r *PostgresPlanRepository) ListPlans(ctx context.Context, limit int) ([]model.PlanListItem, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, final_recommendation, model_name, created_at
		FROM plans
		ORDER BY created_at DESC
		LIMIT $1
	`
	items := []model.PlanListItem{}
	if err := pgxscan.Select(ctx, r.db, &items, query, limit); err != nil {
		r.logger.Error("Failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return items, nil
}

// UpdateDestinationPhotos записывает найденные фотографии направления.
func (r *PostgresPlanRepository) UpdateDestinationPhotos(ctx context.Context, planID uuid.UUID, slug string, photoURLs []string, attribution string) error {
	photoData, err := json.Marshal(photoURLs)
	if err != nil {
		return fmt.Errorf("failed to marshal photo urls: %w", err)
	}
	query := `
		UPDATE plan_destinations
		SET photo_urls = $1, photo_attribution = $2
		WHERE plan_id = $3 AND slug = $4
	`
	tag, err := r.db.Exec(ctx, query, photoData, attribution, planID, slug)
	if err != nil {
		r.logger.Error("Failed to update destination photos",
			zap.String("plan_id", planID.String()), zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("failed to update destination photos: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
