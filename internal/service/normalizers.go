package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"trip-server/internal/model"
)

// Нормализаторы — чистые функции без разделяемого состояния. Каждая приводит
// один свободно-форменный фрагмент ответа модели к канонической форме;
// валидацией они не занимаются, это работа схемы после сборки.

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify детерминированно выводит slug из имени: нижний регистр, каждая серия
// не-алфанумерики схлопывается в один дефис, краевые дефисы обрезаются.
func Slugify(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// EnsureNameSlug восстанавливает имя и slug кандидата. Пустое/отсутствующее имя
// заменяется плейсхолдером "Option N" (нумерация с единицы).
func EnsureNameSlug(candidate map[string]interface{}, index int) (string, string) {
	name := ""
	if s, ok := candidate["name"].(string); ok {
		name = strings.TrimSpace(s)
	}
	if name == "" {
		name = fmt.Sprintf("Option %d", index+1)
	}

	slug := ""
	if s, ok := candidate["slug"].(string); ok && strings.TrimSpace(s) != "" {
		slug = Slugify(s)
	}
	if slug == "" {
		slug = Slugify(name)
	}
	return name, slug
}

// toFiniteFloat приводит значение к конечному числу. Числовые строки
// принимаются, NaN/Inf и все прочее — нет.
func toFiniteFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// lookupHomeLocation ищет домашний аэропорт участника по имени
// (точное сравнение без учета регистра). Пустая строка, если не найден.
func lookupHomeLocation(travelers []model.Traveler, name string) string {
	for _, t := range travelers {
		if strings.EqualFold(t.Name, name) {
			return t.HomeLocation
		}
	}
	return ""
}

// resolveFrom определяет пункт вылета записи: явный from из элемента,
// иначе homeLocation участника, иначе литерал "UNKNOWN".
func resolveFrom(element map[string]interface{}, travelers []model.Traveler, travelerName string) string {
	if s, ok := element["from"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if home := lookupHomeLocation(travelers, travelerName); home != "" {
		return home
	}
	return "UNKNOWN"
}

// normalizeMonthBreakdown фильтрует помесячную разбивку: остаются только
// объекты со строковым month и конечным avgUSD, остальное молча отбрасывается.
func normalizeMonthBreakdown(raw interface{}) []model.MonthCost {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []model.MonthCost
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		month, ok := obj["month"].(string)
		if !ok || month == "" {
			continue
		}
		avg, ok := toFiniteFloat(obj["avgUSD"])
		if !ok {
			continue
		}
		out = append(out, model.MonthCost{Month: month, AvgUSD: avg})
	}
	return out
}

// NormalizeFares приводит per_traveler_fares к канонической последовательности
// FareEntry. Вход бывает двух форм: массив записей или map "имя -> цена".
// Записи без конечного avgUSD отбрасываются, а не зануляются.
func NormalizeFares(raw interface{}, travelers []model.Traveler) []model.FareEntry {
	switch shaped := raw.(type) {
	case []interface{}:
		return normalizeFareArray(shaped, travelers)
	case map[string]interface{}:
		return normalizeFareMap(shaped, travelers)
	default:
		// Строка, null и прочие формы — пустая последовательность
		return []model.FareEntry{}
	}
}

func normalizeFareArray(items []interface{}, travelers []model.Traveler) []model.FareEntry {
	out := []model.FareEntry{}
	for _, item := range items {
		element, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		travelerName, ok := element["travelerName"].(string)
		if !ok || strings.TrimSpace(travelerName) == "" {
			continue
		}
		avg, ok := toFiniteFloat(element["avgUSD"])
		if !ok {
			continue
		}
		out = append(out, model.FareEntry{
			TravelerName:   travelerName,
			From:           resolveFrom(element, travelers, travelerName),
			AvgUSD:         avg,
			MonthBreakdown: normalizeMonthBreakdown(element["monthBreakdown"]),
		})
	}
	return out
}

func normalizeFareMap(entries map[string]interface{}, travelers []model.Traveler) []model.FareEntry {
	// Порядок ключей map не детерминирован — сортируем для воспроизводимости
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []model.FareEntry{}
	for _, travelerName := range names {
		value := entries[travelerName]

		var element map[string]interface{}
		var avgRaw interface{}
		switch shaped := value.(type) {
		case map[string]interface{}:
			element = shaped
			avgRaw = shaped["avgUSD"]
			if avgRaw == nil {
				avgRaw = shaped["price"]
			}
		default:
			element = map[string]interface{}{}
			avgRaw = value
		}

		avg, ok := toFiniteFloat(avgRaw)
		if !ok {
			continue
		}
		out = append(out, model.FareEntry{
			TravelerName:   travelerName,
			From:           resolveFrom(element, travelers, travelerName),
			AvgUSD:         avg,
			MonthBreakdown: normalizeMonthBreakdown(element["monthBreakdown"]),
		})
	}
	return out
}

// NormalizeMonths приводит поле months к последовательности MonthNote.
// nil-результат означает "данных нет" и отличается от пустой последовательности.
func NormalizeMonths(raw interface{}, fallbackMonth string) []model.MonthNote {
	switch shaped := raw.(type) {
	case []interface{}:
		var out []model.MonthNote
		for _, item := range shaped {
			switch entry := item.(type) {
			case map[string]interface{}:
				month, mok := entry["month"].(string)
				note, nok := entry["note"].(string)
				if mok && nok {
					out = append(out, model.MonthNote{Month: month, Note: note})
				}
			case string:
				if entry != "" {
					out = append(out, model.MonthNote{Month: fallbackMonth, Note: entry})
				}
			}
		}
		// После фильтрации пусто — считаем, что данных нет
		return out
	case string:
		if strings.TrimSpace(shaped) == "" {
			return nil
		}
		return []model.MonthNote{{Month: fallbackMonth, Note: shaped}}
	default:
		return nil
	}
}

// CoerceDestinationCount обеспечивает инвариант "ровно пять направлений":
// лишние обрезаются, недостающие добиваются пустыми объектами. Плейсхолдеры
// дальше проходят через ту же логику fallback-ов, что и разреженный вывод модели.
func CoerceDestinationCount(raw []interface{}) []interface{} {
	const want = 5
	if len(raw) > want {
		return raw[:want]
	}
	out := make([]interface{}, 0, want)
	out = append(out, raw...)
	for len(out) < want {
		out = append(out, map[string]interface{}{})
	}
	return out
}

// FallbackFinalRecommendation синтезирует итоговую рекомендацию, когда модель
// ее не дала: берется направление с минимальной средней стоимостью перелетов
// (при равенстве побеждает первое).
func FallbackFinalRecommendation(destinations []model.Destination) string {
	if len(destinations) == 0 {
		return "We could not pick a single best option this time — review the destinations below."
	}

	best := 0
	bestMean := math.Inf(1)
	for i, dest := range destinations {
		mean := math.Inf(1)
		if len(dest.Fares) > 0 {
			sum := 0.0
			for _, fare := range dest.Fares {
				sum += fare.AvgUSD
			}
			mean = sum / float64(len(dest.Fares))
		}
		if mean < bestMean {
			bestMean = mean
			best = i
		}
	}

	return fmt.Sprintf("Based on estimated fares, %s looks like the most affordable pick for the whole group.", destinations[best].Name)
}
