package service

import (
	"fmt"
	"strings"

	"trip-server/internal/model"
)

// maxPhotosPerDestination — жесткий потолок фотографий на направление.
// Список обрезается, но никогда не дополняется.
const maxPhotosPerDestination = 4

// AssembleDestinations собирает кандидатов направлений из generic-дерева.
// Вход должен быть уже приведен к ровно пяти элементам (CoerceDestinationCount);
// сборка не останавливается на отдельном битом поле — для каждого есть fallback.
func AssembleDestinations(raw []interface{}, travelers []model.Traveler, timeframe model.Timeframe) []model.Destination {
	out := make([]model.Destination, 0, len(raw))
	for i, item := range raw {
		candidate, ok := item.(map[string]interface{})
		if !ok {
			// Не-объект трактуем как пустой кандидат
			candidate = map[string]interface{}{}
		}
		out = append(out, assembleDestination(candidate, i, travelers, timeframe.StartMonth))
	}
	return out
}

func assembleDestination(candidate map[string]interface{}, index int, travelers []model.Traveler, fallbackMonth string) model.Destination {
	name, slug := EnsureNameSlug(candidate, index)

	narrative := ""
	if s, ok := candidate["narrative"].(string); ok {
		narrative = strings.TrimSpace(s)
	}
	if narrative == "" {
		narrative = fmt.Sprintf("%s could suit this group; see the fare estimates and seasonal notes below.", name)
	}

	enrichments := assembleEnrichments(candidate)

	dest := model.Destination{
		Name:      name,
		Slug:      slug,
		Narrative: narrative,
		Months:    NormalizeMonths(candidate["months"], fallbackMonth),
		Fares:     NormalizeFares(candidate["per_traveler_fares"], travelers),

		// Плоское и вложенное представления собираются из одних значений
		SuggestedMonth:   enrichments.SuggestedMonth,
		SeasonalWarnings: enrichments.SeasonalWarnings,
		Satisfies:        enrichments.Satisfies,
		Analytics:        enrichments.Analytics,
		MapCenter:        enrichments.MapCenter,
		MapMarkers:       enrichments.MapMarkers,
		PhotoURLs:        enrichments.PhotoURLs,
		PhotoAttribution: enrichments.PhotoAttribution,

		Enrichments: enrichments,
	}
	return dest
}

// assembleEnrichments переносит известные необязательные поля кандидата как есть,
// за двумя исключениями: список фото обрезается до четырех (если это вообще
// последовательность), а атрибуция берется только строкой.
func assembleEnrichments(candidate map[string]interface{}) model.Enrichments {
	e := model.Enrichments{}

	if s, ok := candidate["suggested_month"].(string); ok {
		e.SuggestedMonth = s
	}
	e.SeasonalWarnings = toStringSlice(candidate["seasonal_warnings"])
	e.Satisfies = toSatisfies(candidate["satisfies"])
	if analytics, ok := candidate["analytics"].(map[string]interface{}); ok {
		e.Analytics = analytics
	}
	e.MapCenter = toCoordinate(candidate["map_center"])
	e.MapMarkers = toMapMarkers(candidate["map_markers"])

	if photos, ok := candidate["photo_urls"].([]interface{}); ok {
		urls := toStringSlice(photos)
		if len(urls) > maxPhotosPerDestination {
			urls = urls[:maxPhotosPerDestination]
		}
		e.PhotoURLs = urls
	}
	if s, ok := candidate["photo_attribution"].(string); ok {
		e.PhotoAttribution = s
	}

	return e
}

func toStringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toSatisfies(raw interface{}) []model.SatisfiesEntry {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []model.SatisfiesEntry
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		traveler, ok := obj["traveler"].(string)
		if !ok || traveler == "" {
			// Модели иногда называют поле travelerName вместо traveler.
			traveler, ok = obj["travelerName"].(string)
			if !ok || traveler == "" {
				continue
			}
		}
		reason, _ := obj["reason"].(string)
		if reason == "" {
			// Альтернативная форма: список интересов вместо причины.
			reason = strings.Join(toStringSlice(obj["interests"]), ", ")
		}
		out = append(out, model.SatisfiesEntry{Traveler: traveler, Reason: reason})
	}
	return out
}

func toCoordinate(raw interface{}) *model.Coordinate {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	lat, latOK := toFiniteFloat(obj["lat"])
	lng, lngOK := toFiniteFloat(obj["lng"])
	if !latOK || !lngOK {
		return nil
	}
	return &model.Coordinate{Lat: lat, Lng: lng}
}

func toMapMarkers(raw interface{}) []model.MapMarker {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []model.MapMarker
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		label, ok := obj["label"].(string)
		if !ok || label == "" {
			continue
		}
		lat, latOK := toFiniteFloat(obj["lat"])
		lng, lngOK := toFiniteFloat(obj["lng"])
		if !latOK || !lngOK {
			continue
		}
		out = append(out, model.MapMarker{Label: label, Lat: lat, Lng: lng})
	}
	return out
}

// BuildPlanDocument собирает канонический документ плана из отремонтированного
// дерева: применяет Coercer, Assembler и fallback-и для верхнеуровневых полей.
// Документ на выходе еще не валидирован.
func BuildPlanDocument(tree map[string]interface{}, travelers []model.Traveler, timeframe model.Timeframe) (model.PlanDocument, error) {
	rawDests, ok := tree["destinations"].([]interface{})
	if !ok || len(rawDests) == 0 {
		return model.PlanDocument{}, model.ErrEmptyModelOutput
	}

	destinations := AssembleDestinations(CoerceDestinationCount(rawDests), travelers, timeframe)

	final := ""
	if s, ok := tree["final_recommendation"].(string); ok {
		final = strings.TrimSpace(s)
	}
	if final == "" {
		final = FallbackFinalRecommendation(destinations)
	}

	return model.PlanDocument{
		FinalRecommendation: final,
		GroupFit:            assembleGroupFit(tree["group_fit"]),
		Destinations:        destinations,
	}, nil
}

// assembleGroupFit разбирает необязательный блок group_fit. Отсутствующий или
// битый блок заменяется синтезированной сводкой по умолчанию, чтобы в
// сохраненном плане это поле всегда было осмысленным.
func assembleGroupFit(raw interface{}) *model.GroupFit {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return &model.GroupFit{Summary: "The group fit analysis was not provided by the model for this plan."}
	}

	summary := ""
	if s, ok := obj["summary"].(string); ok {
		summary = strings.TrimSpace(s)
	}
	if summary == "" {
		summary = "The group fit analysis was not provided by the model for this plan."
	}

	return &model.GroupFit{
		Summary:    summary,
		Priorities: toStringSlice(obj["priorities"]),
		Tradeoffs:  toStringSlice(obj["tradeoffs"]),
	}
}
