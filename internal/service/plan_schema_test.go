package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"trip-server/internal/model"
	"trip-server/internal/service"
)

func validDocument() model.PlanDocument {
	dests := make([]model.Destination, 0, 5)
	names := []string{"Lisbon", "Oaxaca", "Kyoto", "Tbilisi", "Cape Town"}
	for _, name := range names {
		dests = append(dests, model.Destination{
			Name:      name,
			Slug:      service.Slugify(name),
			Narrative: name + " suits this group well.",
			Fares: []model.FareEntry{
				{TravelerName: "Alex", From: "LAX", AvgUSD: 500},
			},
		})
	}
	return model.PlanDocument{
		FinalRecommendation: "Lisbon is the best overall pick.",
		GroupFit:            &model.GroupFit{Summary: "Good fit for everyone."},
		Destinations:        dests,
	}
}

func TestValidatePlanDocument(t *testing.T) {
	t.Run("Valid document passes", func(t *testing.T) {
		assert.NoError(t, service.ValidatePlanDocument(validDocument()))
	})

	t.Run("Empty fares are allowed", func(t *testing.T) {
		doc := validDocument()
		doc.Destinations[2].Fares = []model.FareEntry{}
		assert.NoError(t, service.ValidatePlanDocument(doc))
	})

	t.Run("Wrong destination count is rejected", func(t *testing.T) {
		doc := validDocument()
		doc.Destinations = doc.Destinations[:4]
		err := service.ValidatePlanDocument(doc)
		assert.True(t, errors.Is(err, model.ErrSchemaViolation))

		var sve *model.SchemaViolationError
		assert.True(t, errors.As(err, &sve))
		assert.NotEmpty(t, sve.Issues)
		assert.NotEmpty(t, sve.Dump)
	})

	t.Run("Missing narrative is rejected", func(t *testing.T) {
		doc := validDocument()
		doc.Destinations[0].Narrative = ""
		err := service.ValidatePlanDocument(doc)
		assert.True(t, errors.Is(err, model.ErrSchemaViolation))
	})

	t.Run("Negative fare is rejected", func(t *testing.T) {
		doc := validDocument()
		doc.Destinations[0].Fares[0].AvgUSD = -10
		err := service.ValidatePlanDocument(doc)
		assert.True(t, errors.Is(err, model.ErrSchemaViolation))
	})

	t.Run("Malformed photo URL is rejected", func(t *testing.T) {
		doc := validDocument()
		doc.Destinations[0].PhotoURLs = []string{"not a url"}
		err := service.ValidatePlanDocument(doc)
		assert.True(t, errors.Is(err, model.ErrSchemaViolation))
	})

	t.Run("More than four photos is rejected", func(t *testing.T) {
		doc := validDocument()
		doc.Destinations[0].PhotoURLs = []string{
			"https://example.com/1.jpg",
			"https://example.com/2.jpg",
			"https://example.com/3.jpg",
			"https://example.com/4.jpg",
			"https://example.com/5.jpg",
		}
		err := service.ValidatePlanDocument(doc)
		assert.True(t, errors.Is(err, model.ErrSchemaViolation))
	})

	t.Run("Missing final recommendation is rejected", func(t *testing.T) {
		doc := validDocument()
		doc.FinalRecommendation = ""
		err := service.ValidatePlanDocument(doc)
		assert.True(t, errors.Is(err, model.ErrSchemaViolation))
	})
}
