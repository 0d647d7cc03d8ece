package model

import (
	"time"

	"github.com/google/uuid"
)

// Traveler представляет участника поездки, как его прислал клиент.
// Структура неизменяема после отправки запроса: ядро ее не мутирует.
type Traveler struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name" binding:"required"`
	HomeLocation string `json:"home_location" binding:"required"`
	Relationship string `json:"relationship,omitempty"`
	Age          string `json:"age,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Personality  string `json:"personality,omitempty"`
	SpouseName   string `json:"spouse_name,omitempty"`
	KidsCount    string `json:"kids_count,omitempty"` // Текстовое поле, парсится при агрегации
	IsRequester  bool   `json:"is_requester,omitempty"`
}

// Timeframe — период поездки. Месяцы в формате "YYYY-MM", сверх формы не валидируются.
type Timeframe struct {
	StartMonth string `json:"start_month" binding:"required"`
	EndMonth   string `json:"end_month" binding:"required"`
}

// GeneratePlanRequest — тело запроса на генерацию плана.
type GeneratePlanRequest struct {
	Travelers   []Traveler `json:"travelers" binding:"required,min=1,dive"`
	Timeframe   Timeframe  `json:"timeframe" binding:"required"`
	Suggestions string     `json:"suggestions,omitempty"`
}

// MonthCost — оценка стоимости для конкретного месяца.
type MonthCost struct {
	Month  string  `json:"month" validate:"required"`
	AvgUSD float64 `json:"avgUSD" validate:"gte=0"`
}

// FareEntry — оценка стоимости перелета туда-обратно для одного участника.
// TravelerName — слабая связь с Traveler по имени (case-insensitive),
// а не по идентификатору. Несовпадение дает from="UNKNOWN".
type FareEntry struct {
	TravelerName   string      `json:"travelerName" validate:"required"`
	From           string      `json:"from" validate:"required"`
	AvgUSD         float64     `json:"avgUSD" validate:"gte=0"`
	MonthBreakdown []MonthCost `json:"monthBreakdown,omitempty" validate:"omitempty,dive"`
}

// MonthNote — месяц плюс сезонная заметка в свободной форме.
type MonthNote struct {
	Month string `json:"month" validate:"required"`
	Note  string `json:"note" validate:"required"`
}

// Coordinate — центр карты направления.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapMarker — маркер на карте направления.
type MapMarker struct {
	Label string  `json:"label" validate:"required"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// SatisfiesEntry — пара "участник + причина", почему направление ему подходит.
type SatisfiesEntry struct {
	Traveler string `json:"traveler" validate:"required"`
	Reason   string `json:"reason"`
}

// Enrichments — необязательные обогащения направления, пришедшие от модели
// или от поиска изображений. Все поля опциональны.
type Enrichments struct {
	SuggestedMonth   string                 `json:"suggested_month,omitempty"`
	SeasonalWarnings []string               `json:"seasonal_warnings,omitempty"`
	Satisfies        []SatisfiesEntry       `json:"satisfies,omitempty" validate:"omitempty,dive"`
	Analytics        map[string]interface{} `json:"analytics,omitempty"`
	MapCenter        *Coordinate            `json:"map_center,omitempty"`
	MapMarkers       []MapMarker            `json:"map_markers,omitempty" validate:"omitempty,dive"`
	PhotoURLs        []string               `json:"photo_urls,omitempty" validate:"omitempty,max=4,dive,url"`
	PhotoAttribution string                 `json:"photo_attribution,omitempty"`
}

// Destination — направление после нормализации и сборки.
// Поля обогащений продублированы на верхнем уровне и внутри Enrichments:
// оба представления собираются из одних значений и не редактируются порознь.
type Destination struct {
	Name      string      `json:"name" validate:"required"`
	Slug      string      `json:"slug" validate:"required"`
	Narrative string      `json:"narrative" validate:"required"`
	Months    []MonthNote `json:"months,omitempty" validate:"omitempty,dive"`
	Fares     []FareEntry `json:"fares" validate:"dive"`

	SuggestedMonth   string                 `json:"suggested_month,omitempty"`
	SeasonalWarnings []string               `json:"seasonal_warnings,omitempty"`
	Satisfies        []SatisfiesEntry       `json:"satisfies,omitempty" validate:"omitempty,dive"`
	Analytics        map[string]interface{} `json:"analytics,omitempty"`
	MapCenter        *Coordinate            `json:"map_center,omitempty"`
	MapMarkers       []MapMarker            `json:"map_markers,omitempty" validate:"omitempty,dive"`
	PhotoURLs        []string               `json:"photo_urls,omitempty" validate:"omitempty,max=4,dive,url"`
	PhotoAttribution string                 `json:"photo_attribution,omitempty"`

	Enrichments Enrichments `json:"enrichments"`
}

// GroupFit — сводка "насколько план подходит группе".
type GroupFit struct {
	Summary    string   `json:"summary" validate:"required"`
	Priorities []string `json:"priorities,omitempty"`
	Tradeoffs  []string `json:"tradeoffs,omitempty"`
}

// PlanDocument — канонический результат нормализации ответа модели.
// Ровно эта форма проходит через валидатор схемы; до валидации ей не доверяем.
type PlanDocument struct {
	FinalRecommendation string        `json:"final_recommendation" validate:"required"`
	GroupFit            *GroupFit     `json:"group_fit,omitempty"`
	Destinations        []Destination `json:"destinations" validate:"len=5,dive"`
}

// SummaryRow — производная сводка стоимости по одному направлению.
// Не приходит от модели, вычисляется агрегатором.
type SummaryRow struct {
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	TotalGroupUSD   float64 `json:"totalGroupUSD"`
	AvgPerPersonUSD float64 `json:"avgPerPersonUSD"`
}

// Plan — итоговый агрегат: валидированный документ плюс исходные данные
// запроса и сырой вывод модели (сохраняется для аудита).
type Plan struct {
	ID                  uuid.UUID     `json:"id"`
	FinalRecommendation string        `json:"final_recommendation"`
	GroupFit            *GroupFit     `json:"group_fit,omitempty"`
	Destinations        []Destination `json:"destinations"`
	Travelers           []Traveler    `json:"travelers"`
	Timeframe           Timeframe     `json:"timeframe"`
	Suggestions         string        `json:"suggestions,omitempty"`
	ModelName           string        `json:"model_name"`
	RawModelOutput      string        `json:"-"`
	NormalizedOutput    []byte        `json:"-"` // Нормализованный, но еще не валидированный объект
	Summary             []SummaryRow  `json:"summary"`
	CreatedAt           time.Time     `json:"created_at"`
}

// PlanListItem — краткая запись плана для списков. Направления не грузим.
type PlanListItem struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	FinalRecommendation string    `json:"final_recommendation" db:"final_recommendation"`
	ModelName           string    `json:"model_name" db:"model_name"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// DestinationTotals — блок итогов, записываемый в строку направления.
type DestinationTotals struct {
	AvgPerPerson float64 `json:"avgPerPerson"`
	TotalGroup   float64 `json:"totalGroup"`
}

// TotalsBySlug находит итоги направления в сводке по slug.
// Отсутствие строки дает нулевые итоги, а не ошибку.
func TotalsBySlug(summary []SummaryRow, slug string) DestinationTotals {
	for _, row := range summary {
		if row.Slug == slug {
			return DestinationTotals{
				AvgPerPerson: row.AvgPerPersonUSD,
				TotalGroup:   row.TotalGroupUSD,
			}
		}
	}
	return DestinationTotals{}
}
