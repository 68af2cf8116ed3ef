package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classificationSchema = map[string]any{
	"type":     "object",
	"required": []any{"dm_type", "title"},
	"properties": map[string]any{
		"dm_type":    map[string]any{"type": "string"},
		"title":      map[string]any{"type": "string"},
		"confidence": map[string]any{"type": "number"},
	},
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	ok := []byte(`{"dm_type":"PROC","title":"Engine Start","confidence":0.9}`)
	assert.NoError(t, ValidateJSONAgainstSchema(classificationSchema, ok))

	missing := []byte(`{"title":"Engine Start"}`)
	assert.Error(t, ValidateJSONAgainstSchema(classificationSchema, missing))

	wrongType := []byte(`{"dm_type":"PROC","title":"x","confidence":"high"}`)
	assert.Error(t, ValidateJSONAgainstSchema(classificationSchema, wrongType))
}

func TestStripUnknownFields(t *testing.T) {
	chatty := []byte(`{"dm_type":"PROC","title":"x","reasoning":"because"}`)

	cleaned, dropped, err := StripUnknownFields(classificationSchema, chatty)
	require.NoError(t, err)
	assert.Equal(t, []string{"reasoning"}, dropped)
	assert.NoError(t, ValidateJSONAgainstSchema(classificationSchema, cleaned))

	same, dropped, err := StripUnknownFields(classificationSchema, []byte(`{"dm_type":"PROC","title":"x"}`))
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.JSONEq(t, `{"dm_type":"PROC","title":"x"}`, string(same))
}

func TestExtractJSONBlock(t *testing.T) {
	fenced := "Here is the result:\n```json\n{\"dm_type\":\"PROC\"}\n```\nHope that helps!"
	assert.Equal(t, `{"dm_type":"PROC"}`, string(ExtractJSONBlock(fenced)))

	bare := ` {"title":"x"} `
	assert.Equal(t, `{"title":"x"}`, string(ExtractJSONBlock(bare)))

	prose := `The answer is {"a":1} as shown.`
	assert.Equal(t, `{"a":1}`, string(ExtractJSONBlock(prose)))
}
