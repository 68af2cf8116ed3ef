package provider

// BuildClassificationSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the backend as an output constraint and also
// use it locally to validate what came back.
func BuildClassificationSchema(allowedTypes []string) map[string]any {
	dmType := map[string]any{"type": "string", "minLength": 1}
	if len(allowedTypes) > 0 {
		dmType = map[string]any{"type": "string", "enum": allowedTypes}
	}

	segment := map[string]any{"type": "string", "maxLength": 4}
	hints := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"model_ident":          map[string]any{"type": "string", "maxLength": 14},
			"system_diff":          segment,
			"system_code":          segment,
			"sub_system_code":      segment,
			"sub_sub_system_code":  segment,
			"assy_code":            segment,
			"disassy_code":         segment,
			"disassy_code_variant": segment,
			"info_code_variant":    map[string]any{"type": "string", "maxLength": 1},
			"item_location_code":   map[string]any{"type": "string", "maxLength": 1},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"dm_type":    dmType,
			"title":      map[string]any{"type": "string", "minLength": 1},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"hints":      hints,
		},
		"required": []string{"dm_type", "title"},
	}
}

// BuildExtractionSchema constrains the structured-extraction response.
func BuildExtractionSchema() map[string]any {
	section := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":    map[string]any{"type": "string"},
			"title":   map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
			"level":   map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"content"},
	}
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"sections": map[string]any{"type": "array", "items": section},
			"warnings": stringList,
			"cautions": stringList,
			"notes":    stringList,
		},
		"required": []string{"sections"},
	}
}

// BuildRewriteSchema constrains the simplified-English rewrite response.
func BuildRewriteSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"rewritten_text": map[string]any{"type": "string", "minLength": 1},
			"ste_score":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"improvements":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"rewritten_text", "ste_score"},
	}
}

// BuildHotspotsSchema constrains the hotspot-suggestion response.
func BuildHotspotsSchema() map[string]any {
	hotspot := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          map[string]any{"type": "string"},
			"x":           map[string]any{"type": "number", "minimum": 0.0},
			"y":           map[string]any{"type": "number", "minimum": 0.0},
			"width":       map[string]any{"type": "number", "minimum": 0.0},
			"height":      map[string]any{"type": "number", "minimum": 0.0},
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"hotspots": map[string]any{"type": "array", "items": hotspot},
		},
		"required": []string{"hotspots"},
	}
}
