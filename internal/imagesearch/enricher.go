package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trip-server/internal/model"
	"trip-server/internal/repository"
)

const (
	// maxPhotos — потолок на число фотографий одного направления.
	maxPhotos = 4
	// maxConcurrentSearches ограничивает параллельные обращения к поисковому API.
	maxConcurrentSearches = 4

	cacheKeyPrefix = "imagesearch:"
)

type cachedPhotos struct {
	Photos []Photo `json:"photos"`
}

// Enricher дополняет сохраненные планы фотографиями направлений.
// Работает после сохранения плана, ошибки не влияют на ответ клиенту.
type Enricher struct {
	provider      Provider
	repo          repository.PlanRepository
	redisClient   *redis.Client // nil отключает кэш
	verifyClient  *http.Client
	verifyTimeout time.Duration
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewEnricher создает обогатитель. redisClient может быть nil.
func NewEnricher(provider Provider, repo repository.PlanRepository, redisClient *redis.Client, verifyTimeout, cacheTTL time.Duration, logger *zap.Logger) *Enricher {
	return &Enricher{
		provider:      provider,
		repo:          repo,
		redisClient:   redisClient,
		verifyClient:  &http.Client{Timeout: verifyTimeout},
		verifyTimeout: verifyTimeout,
		cacheTTL:      cacheTTL,
		logger:        logger.Named("image_enricher"),
	}
}

// EnrichPlan ищет фотографии для каждого направления плана и дописывает
// их в хранилище. Направления обрабатываются параллельно с лимитом.
func (e *Enricher) EnrichPlan(ctx context.Context, plan *model.Plan) {
	sem := make(chan struct{}, maxConcurrentSearches)
	var wg sync.WaitGroup

	for _, dest := range plan.Destinations {
		if len(dest.PhotoURLs) > 0 {
			continue // модель уже прислала фотографии
		}
		wg.Add(1)
		go func(dest model.Destination) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			e.enrichDestination(ctx, plan, dest)
		}(dest)
	}

	wg.Wait()
}

func (e *Enricher) enrichDestination(ctx context.Context, plan *model.Plan, dest model.Destination) {
	log := e.logger.With(zap.String("plan_id", plan.ID.String()), zap.String("slug", dest.Slug))

	photos, fromCache := e.cachedPhotos(ctx, dest.Slug)
	if !fromCache {
		found, err := e.provider.SearchPhotos(ctx, dest.Name, maxPhotos*2)
		if err != nil {
			log.Warn("Photo search failed", zap.Error(err))
			return
		}
		photos = e.verifyPhotos(ctx, found)
		if len(photos) > maxPhotos {
			photos = photos[:maxPhotos]
		}
		e.storeInCache(ctx, dest.Slug, photos)
	}

	if len(photos) == 0 {
		log.Info("No photos found for destination")
		return
	}

	urls := make([]string, 0, len(photos))
	attribution := ""
	for _, p := range photos {
		urls = append(urls, p.URL)
		if attribution == "" && p.Attribution != "" {
			attribution = "Photos by " + p.Attribution + " on Unsplash"
		}
	}

	if err := e.repo.UpdateDestinationPhotos(ctx, plan.ID, dest.Slug, urls, attribution); err != nil {
		log.Warn("Failed to store destination photos", zap.Error(err))
		return
	}
	log.Info("Destination photos stored", zap.Int("count", len(urls)))
}

// verifyPhotos отбрасывает ссылки, по которым HEAD вернул ошибку статуса.
// Таймаут проверки не считается отказом: медленный CDN не повод терять фото.
func (e *Enricher) verifyPhotos(ctx context.Context, photos []Photo) []Photo {
	verified := make([]Photo, 0, len(photos))
	for _, photo := range photos {
		if e.verifyURL(ctx, photo.URL) {
			verified = append(verified, photo)
		}
	}
	return verified
}

func (e *Enricher) verifyURL(ctx context.Context, photoURL string) bool {
	verifyCtx, cancel := context.WithTimeout(ctx, e.verifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(verifyCtx, http.MethodHead, photoURL, nil)
	if err != nil {
		return false
	}
	resp, err := e.verifyClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return true
		}
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusBadRequest
}

func (e *Enricher) cachedPhotos(ctx context.Context, slug string) ([]Photo, bool) {
	if e.redisClient == nil {
		return nil, false
	}
	raw, err := e.redisClient.Get(ctx, cacheKeyPrefix+slug).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			e.logger.Warn("Redis get failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil, false
	}
	var cached cachedPhotos
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	return cached.Photos, true
}

func (e *Enricher) storeInCache(ctx context.Context, slug string, photos []Photo) {
	if e.redisClient == nil || len(photos) == 0 {
		return
	}
	data, err := json.Marshal(cachedPhotos{Photos: photos})
	if err != nil {
		return
	}
	if err := e.redisClient.Set(ctx, cacheKeyPrefix+slug, data, e.cacheTTL).Err(); err != nil {
		e.logger.Warn("Redis set failed", zap.String("slug", slug), zap.Error(err))
	}
}
