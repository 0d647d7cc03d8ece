package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"trip-server/internal/model"
)

// familySize возвращает размер семьи участника: сам участник, плюс супруг(а),
// плюс дети. Участник ищется по имени без учета регистра; если не найден,
// считаем семью из одного человека.
func familySize(travelers []model.Traveler, name string) float64 {
	for _, t := range travelers {
		if strings.EqualFold(t.Name, name) {
			return headcount(t)
		}
	}
	return 1
}

func headcount(t model.Traveler) float64 {
	size := 1.0
	if strings.TrimSpace(t.SpouseName) != "" {
		size++
	}
	if kids, err := strconv.Atoi(strings.TrimSpace(t.KidsCount)); err == nil && kids > 0 {
		size += float64(kids)
	}
	return size
}

// SummarizeCosts строит сводку стоимости по валидированным направлениям:
// суммарная стоимость для всей группы и средняя на человека, отсортированные
// по возрастанию групповой стоимости (стабильно — ничьи сохраняют исходный порядок).
func SummarizeCosts(destinations []model.Destination, travelers []model.Traveler) []model.SummaryRow {
	totalGroupCount := 0.0
	for _, t := range travelers {
		totalGroupCount += headcount(t)
	}

	rows := make([]model.SummaryRow, 0, len(destinations))
	for _, dest := range destinations {
		travelerTotal := 0.0
		for _, fare := range dest.Fares {
			travelerTotal += fare.AvgUSD * familySize(travelers, fare.TravelerName)
		}

		avgPerPerson := travelerTotal
		if totalGroupCount > 0 {
			avgPerPerson = travelerTotal / totalGroupCount
		}

		rows = append(rows, model.SummaryRow{
			Name:            dest.Name,
			Slug:            dest.Slug,
			TotalGroupUSD:   math.Round(travelerTotal),
			AvgPerPersonUSD: math.Round(avgPerPerson),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalGroupUSD < rows[j].TotalGroupUSD
	})
	return rows
}
