package service

import (
	"fmt"
	"strings"

	"trip-server/internal/model"
)

// systemPromptTemplate — системный промт для генерации плана поездки.
// Модель обязана вернуть единственный JSON-объект с пятью направлениями.
const systemPromptTemplate = `You are a travel planning assistant for multi-traveler groups.
You will receive a description of a group of travelers and a timeframe.
Respond with a SINGLE JSON object and nothing else. No markdown fences, no prose outside the JSON.

The JSON object MUST have this shape:
{
  "destinations": [ exactly 5 destination objects ],
  "group_fit": { "summary": string, "priorities": [string], "tradeoffs": [string] },
  "final_recommendation": string
}

Each destination object MUST contain:
- "name": string, a real city or region
- "narrative": string, 2-4 sentences on why this destination suits the group
- "per_traveler_fares": array of { "travelerName", "from", "avgUSD", "monthBreakdown": [{ "month", "avgUSD" }] },
  one entry per traveler, with realistic round-trip airfare estimates in USD from each traveler's home airport
- "months": array of { "month", "note" } covering the requested timeframe
- "suggested_month": string
- "seasonal_warnings": [string]
- "satisfies": array of { "traveler", "reason" }, one entry per traveler whose interests the destination serves

Fares must be plain numbers, never strings. Months use full English names.`

// BuildSystemPrompt возвращает системный промт для запроса плана.
func BuildSystemPrompt() string {
	return systemPromptTemplate
}

// BuildUserPrompt собирает пользовательский промт из данных группы.
// Путешественники перечисляются построчно, чтобы модель не теряла участников.
func BuildUserPrompt(travelers []model.Traveler, timeframe model.Timeframe) string {
	var sb strings.Builder

	sb.WriteString("Plan a group trip for the following travelers:\n")
	for i, t := range travelers {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, t.Name))
		if t.IsRequester {
			sb.WriteString(" (the requester)")
		}
		if t.HomeLocation != "" {
			sb.WriteString(fmt.Sprintf(", flying from %s", t.HomeLocation))
		}
		if t.Relationship != "" {
			sb.WriteString(fmt.Sprintf(", relationship: %s", t.Relationship))
		}
		if t.Age != "" {
			sb.WriteString(fmt.Sprintf(", age: %s", t.Age))
		}
		if t.Gender != "" {
			sb.WriteString(fmt.Sprintf(", gender: %s", t.Gender))
		}
		if t.Personality != "" {
			sb.WriteString(fmt.Sprintf(", personality and interests: %s", t.Personality))
		}
		if t.SpouseName != "" {
			sb.WriteString(fmt.Sprintf(", traveling with spouse %s", t.SpouseName))
		}
		if t.KidsCount != "" && t.KidsCount != "0" {
			sb.WriteString(fmt.Sprintf(", with %s kids", t.KidsCount))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nTimeframe: %s through %s.\n", timeframe.StartMonth, timeframe.EndMonth))
	sb.WriteString("Propose exactly 5 destinations that balance everyone's interests and budgets.")

	return sb.String()
}
