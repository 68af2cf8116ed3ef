package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// StripUnknownFields drops top-level keys not present in the schema's
// properties map, so an over-chatty model response can still pass strict
// validation. Returns the cleaned JSON and the dropped key names.
func StripUnknownFields(schemaMap map[string]any, data []byte) ([]byte, []string, error) {
	props, _ := schemaMap["properties"].(map[string]any)
	if props == nil {
		return data, nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, nil, fmt.Errorf("unmarshal for sanitize: %w", err)
	}
	var dropped []string
	for k := range obj {
		if _, ok := props[k]; !ok {
			dropped = append(dropped, k)
			delete(obj, k)
		}
	}
	if len(dropped) == 0 {
		return data, nil, nil
	}
	cleaned, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal sanitized: %w", err)
	}
	return cleaned, dropped, nil
}

// ExtractJSONBlock strips markdown code fences and surrounding prose so the
// payload starts at the first '{' and ends at the matching last '}'.
func ExtractJSONBlock(content string) []byte {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if i := strings.LastIndex(content, "```"); i >= 0 {
			content = content[:i]
		}
		content = strings.TrimSpace(content)
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return []byte(content)
}
