package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trip-server/internal/model"
	"trip-server/internal/service"
)

var testTravelers = []model.Traveler{
	{Name: "Alex", HomeLocation: "LAX", SpouseName: "Dana", KidsCount: "1", IsRequester: true},
	{Name: "Sam", HomeLocation: "SEA"},
	{Name: "Kim", HomeLocation: "JFK"},
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple name", "Lisbon", "lisbon"},
		{"Name with spaces and comma", "Lisbon, Portugal", "lisbon-portugal"},
		{"Placeholder name", "Option 3", "option-3"},
		{"Leading and trailing punctuation", "  --Kyoto!  ", "kyoto"},
		{"Consecutive separators collapse", "San  Jose / CR", "san-jose-cr"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, service.Slugify(tc.input))
		})
	}
}

func TestEnsureNameSlug(t *testing.T) {
	t.Run("Present name produces derived slug", func(t *testing.T) {
		name, slug := service.EnsureNameSlug(map[string]interface{}{"name": "Mexico City"}, 0)
		assert.Equal(t, "Mexico City", name)
		assert.Equal(t, "mexico-city", slug)
	})

	t.Run("Missing name falls back to numbered placeholder", func(t *testing.T) {
		name, slug := service.EnsureNameSlug(map[string]interface{}{}, 2)
		assert.Equal(t, "Option 3", name)
		assert.Equal(t, "option-3", slug)
	})

	t.Run("Blank name falls back to numbered placeholder", func(t *testing.T) {
		name, slug := service.EnsureNameSlug(map[string]interface{}{"name": "   "}, 0)
		assert.Equal(t, "Option 1", name)
		assert.Equal(t, "option-1", slug)
	})

	t.Run("Provided slug is normalized", func(t *testing.T) {
		_, slug := service.EnsureNameSlug(map[string]interface{}{"name": "Lisbon", "slug": "LISBON Portugal"}, 0)
		assert.Equal(t, "lisbon-portugal", slug)
	})
}

func TestNormalizeFares_ArrayForm(t *testing.T) {
	t.Run("Numeric strings are accepted, garbage is dropped", func(t *testing.T) {
		raw := []interface{}{
			map[string]interface{}{"travelerName": "Alex", "from": "LAX", "avgUSD": 450.0},
			map[string]interface{}{"travelerName": "Sam", "avgUSD": "510"},
			map[string]interface{}{"travelerName": "Kim", "avgUSD": "not a number"},
			map[string]interface{}{"travelerName": "Kim", "avgUSD": "NaN"},
			"just a string",
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Len(t, fares, 2)
		assert.Equal(t, 450.0, fares[0].AvgUSD)
		assert.Equal(t, "LAX", fares[0].From)
		assert.Equal(t, 510.0, fares[1].AvgUSD)
		// from не указан, берется домашний аэропорт участника
		assert.Equal(t, "SEA", fares[1].From)
	})

	t.Run("Unknown traveler gets UNKNOWN origin", func(t *testing.T) {
		raw := []interface{}{
			map[string]interface{}{"travelerName": "Stranger", "avgUSD": 300.0},
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Len(t, fares, 1)
		assert.Equal(t, "UNKNOWN", fares[0].From)
	})

	t.Run("Traveler lookup is case-insensitive", func(t *testing.T) {
		raw := []interface{}{
			map[string]interface{}{"travelerName": "alex", "avgUSD": 300.0},
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Len(t, fares, 1)
		assert.Equal(t, "LAX", fares[0].From)
	})

	t.Run("Month breakdown keeps only well-formed entries", func(t *testing.T) {
		raw := []interface{}{
			map[string]interface{}{
				"travelerName": "Alex",
				"avgUSD":       400.0,
				"monthBreakdown": []interface{}{
					map[string]interface{}{"month": "June", "avgUSD": 380.0},
					map[string]interface{}{"month": "July", "avgUSD": "Infinity"},
					map[string]interface{}{"avgUSD": 500.0},
				},
			},
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Len(t, fares, 1)
		assert.Len(t, fares[0].MonthBreakdown, 1)
		assert.Equal(t, "June", fares[0].MonthBreakdown[0].Month)
	})
}

func TestNormalizeFares_MapForm(t *testing.T) {
	t.Run("Bare numbers and nested objects, sorted by traveler name", func(t *testing.T) {
		raw := map[string]interface{}{
			"Sam":  map[string]interface{}{"avgUSD": 510.0},
			"Alex": 320.0,
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Len(t, fares, 2)
		assert.Equal(t, "Alex", fares[0].TravelerName)
		assert.Equal(t, 320.0, fares[0].AvgUSD)
		assert.Equal(t, "LAX", fares[0].From)
		assert.Equal(t, "Sam", fares[1].TravelerName)
		assert.Equal(t, 510.0, fares[1].AvgUSD)
		assert.Equal(t, "SEA", fares[1].From)
	})

	t.Run("Price key is used when avgUSD is absent", func(t *testing.T) {
		raw := map[string]interface{}{
			"Kim": map[string]interface{}{"price": 275.0},
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Len(t, fares, 1)
		assert.Equal(t, 275.0, fares[0].AvgUSD)
	})

	t.Run("Entries without finite value are dropped", func(t *testing.T) {
		raw := map[string]interface{}{
			"Alex": "cheap",
			"Sam":  nil,
		}
		fares := service.NormalizeFares(raw, testTravelers)
		assert.Empty(t, fares)
	})
}

func TestNormalizeFares_OtherForms(t *testing.T) {
	t.Run("Scalar input yields empty sequence", func(t *testing.T) {
		assert.Empty(t, service.NormalizeFares("around $400 each", testTravelers))
		assert.Empty(t, service.NormalizeFares(nil, testTravelers))
	})
}

func TestNormalizeMonths(t *testing.T) {
	t.Run("Array of month objects", func(t *testing.T) {
		raw := []interface{}{
			map[string]interface{}{"month": "June", "note": "warm"},
			map[string]interface{}{"month": "July"},
		}
		months := service.NormalizeMonths(raw, "2026-06")
		assert.Len(t, months, 1)
		assert.Equal(t, "June", months[0].Month)
	})

	t.Run("Bare strings are wrapped with the fallback month", func(t *testing.T) {
		raw := []interface{}{"great shoulder season"}
		months := service.NormalizeMonths(raw, "2026-06")
		assert.Len(t, months, 1)
		assert.Equal(t, "2026-06", months[0].Month)
		assert.Equal(t, "great shoulder season", months[0].Note)
	})

	t.Run("Single string is wrapped", func(t *testing.T) {
		months := service.NormalizeMonths("avoid the rainy season", "2026-07")
		assert.Len(t, months, 1)
		assert.Equal(t, "2026-07", months[0].Month)
	})

	t.Run("Missing data yields nil", func(t *testing.T) {
		assert.Nil(t, service.NormalizeMonths(nil, "2026-06"))
		assert.Nil(t, service.NormalizeMonths("  ", "2026-06"))
		assert.Nil(t, service.NormalizeMonths(42.0, "2026-06"))
	})
}

func TestCoerceDestinationCount(t *testing.T) {
	build := func(n int) []interface{} {
		out := make([]interface{}, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, map[string]interface{}{"name": "D"})
		}
		return out
	}

	t.Run("Excess destinations are truncated", func(t *testing.T) {
		assert.Len(t, service.CoerceDestinationCount(build(10)), 5)
		assert.Len(t, service.CoerceDestinationCount(build(7)), 5)
	})

	t.Run("Short lists are padded with empty candidates", func(t *testing.T) {
		out := service.CoerceDestinationCount(build(3))
		assert.Len(t, out, 5)
		placeholder, ok := out[4].(map[string]interface{})
		assert.True(t, ok)
		assert.Empty(t, placeholder)
	})

	t.Run("Empty list is padded to five placeholders", func(t *testing.T) {
		out := service.CoerceDestinationCount(build(0))
		assert.Len(t, out, 5)
		for _, candidate := range out {
			placeholder, ok := candidate.(map[string]interface{})
			assert.True(t, ok)
			assert.Empty(t, placeholder)
		}
	})

	t.Run("Exact count passes through", func(t *testing.T) {
		in := build(5)
		assert.Equal(t, in, service.CoerceDestinationCount(in))
	})
}

func TestFallbackFinalRecommendation(t *testing.T) {
	t.Run("Cheapest mean fare wins", func(t *testing.T) {
		dests := []model.Destination{
			{Name: "Lisbon", Fares: []model.FareEntry{{AvgUSD: 700}, {AvgUSD: 500}}},
			{Name: "Oaxaca", Fares: []model.FareEntry{{AvgUSD: 300}, {AvgUSD: 400}}},
		}
		rec := service.FallbackFinalRecommendation(dests)
		assert.Contains(t, rec, "Oaxaca")
	})

	t.Run("Ties keep the first destination", func(t *testing.T) {
		dests := []model.Destination{
			{Name: "Lisbon", Fares: []model.FareEntry{{AvgUSD: 400}}},
			{Name: "Porto", Fares: []model.FareEntry{{AvgUSD: 400}}},
		}
		rec := service.FallbackFinalRecommendation(dests)
		assert.Contains(t, rec, "Lisbon")
	})

	t.Run("Destinations without fares lose to any priced one", func(t *testing.T) {
		dests := []model.Destination{
			{Name: "Lisbon"},
			{Name: "Porto", Fares: []model.FareEntry{{AvgUSD: 900}}},
		}
		rec := service.FallbackFinalRecommendation(dests)
		assert.Contains(t, rec, "Porto")
	})

	t.Run("Empty list yields a generic sentence", func(t *testing.T) {
		rec := service.FallbackFinalRecommendation(nil)
		assert.NotEmpty(t, rec)
	})
}
