package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Photo — найденная фотография направления.
type Photo struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution,omitempty"`
}

// Provider выполняет поиск фотографий по текстовому запросу.
type Provider interface {
	SearchPhotos(ctx context.Context, query string, limit int) ([]Photo, error)
}

// unsplashClient реализует Provider поверх Unsplash Search API.
type unsplashClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUnsplashClient создает клиент поиска фотографий.
func NewUnsplashClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) Provider {
	return &unsplashClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("unsplash_client"),
	}
}

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// SearchPhotos ищет фотографии направления.
func (c *unsplashClient) SearchPhotos(ctx context.Context, query string, limit int) ([]Photo, error) {
	log := c.logger.With(zap.String("query", query))

	endpointURL := fmt.Sprintf("%s/search/photos?query=%s&per_page=%d&orientation=landscape",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Client-ID "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Image search request failed", zap.Error(err))
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Warn("Image search returned non-OK status",
			zap.Int("status_code", resp.StatusCode), zap.ByteString("response_body", bodyBytes))
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}

	var parsed unsplashSearchResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	photos := make([]Photo, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		if result.URLs.Regular == "" {
			continue
		}
		photos = append(photos, Photo{
			URL:         result.URLs.Regular,
			Attribution: result.User.Name,
		})
	}
	log.Info("Image search completed", zap.Int("found", len(photos)))
	return photos, nil
}
