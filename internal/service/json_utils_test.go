package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"trip-server/internal/model"
	"trip-server/internal/service"
)

func TestFixJSON(t *testing.T) {
	t.Run("Balanced JSON is returned unchanged", func(t *testing.T) {
		input := `{"destinations": []}`
		assert.Equal(t, input, service.FixJSON(input))
	})

	t.Run("Missing closing braces are appended", func(t *testing.T) {
		input := `{"destinations": [{"name": "Lisbon"`
		fixed := service.FixJSON(input)
		assert.Equal(t, `{"destinations": [{"name": "Lisbon"}]}`, fixed)
	})

	t.Run("Truncated string literal gets closed", func(t *testing.T) {
		input := `{"name": "Lisb`
		fixed := service.FixJSON(input)
		assert.Equal(t, `{"name": "Lisb"}`, fixed)
	})

	t.Run("Trailing comma is trimmed before closing", func(t *testing.T) {
		input := `{"name": "Lisbon",`
		fixed := service.FixJSON(input)
		assert.Equal(t, `{"name": "Lisbon"}`, fixed)
	})

	t.Run("Braces inside strings are not counted", func(t *testing.T) {
		input := `{"note": "use {curly} braces"}`
		assert.Equal(t, input, service.FixJSON(input))
	})
}

func TestRepairModelOutput(t *testing.T) {
	t.Run("Valid object parses without repair", func(t *testing.T) {
		tree, err := service.RepairModelOutput(`{"destinations": [{"name": "Lisbon"}]}`)
		assert.NoError(t, err)
		assert.Contains(t, tree, "destinations")
	})

	t.Run("Markdown fenced output is repaired", func(t *testing.T) {
		raw := "Here is your plan:\n```json\n{\"destinations\": [{\"name\": \"Lisbon\"}]}\n```\nEnjoy!"
		tree, err := service.RepairModelOutput(raw)
		assert.NoError(t, err)
		assert.Contains(t, tree, "destinations")
	})

	t.Run("Truncated output is repaired", func(t *testing.T) {
		raw := `{"destinations": [{"name": "Lisbon", "narrative": "Grea`
		tree, err := service.RepairModelOutput(raw)
		assert.NoError(t, err)
		dests, ok := tree["destinations"].([]interface{})
		assert.True(t, ok)
		assert.Len(t, dests, 1)
	})

	t.Run("Options key is aliased to destinations", func(t *testing.T) {
		tree, err := service.RepairModelOutput(`{"options": [{"name": "Lisbon"}]}`)
		assert.NoError(t, err)
		assert.Contains(t, tree, "destinations")
	})

	t.Run("Options alias does not overwrite destinations", func(t *testing.T) {
		tree, err := service.RepairModelOutput(`{"destinations": [{"name": "Porto"}], "options": [{"name": "Lisbon"}]}`)
		assert.NoError(t, err)
		dests := tree["destinations"].([]interface{})
		first := dests[0].(map[string]interface{})
		assert.Equal(t, "Porto", first["name"])
	})

	t.Run("Empty input is rejected", func(t *testing.T) {
		_, err := service.RepairModelOutput("   \n\t ")
		assert.True(t, errors.Is(err, model.ErrEmptyModelOutput))
	})

	t.Run("Valid top-level array is rejected without repair", func(t *testing.T) {
		// Синтаксически валидный массив содержит объект, но повторный ремонт
		// валидного не-объекта не выполняется
		_, err := service.RepairModelOutput(`[{"name": "Lisbon"}]`)
		assert.True(t, errors.Is(err, model.ErrEmptyModelOutput))
	})

	t.Run("Valid scalar is rejected", func(t *testing.T) {
		_, err := service.RepairModelOutput(`42`)
		assert.True(t, errors.Is(err, model.ErrEmptyModelOutput))
	})

	t.Run("Prose without any object is rejected", func(t *testing.T) {
		_, err := service.RepairModelOutput("Sorry, I cannot help with that.")
		assert.True(t, errors.Is(err, model.ErrEmptyModelOutput))
	})
}
