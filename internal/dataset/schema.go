package dataset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const commonProperties = `
		"index": {"type": "integer", "minimum": 0},
		"prompt": {"type": "string", "minLength": 1},
		"level": {"type": "integer", "minimum": 0},
		"phrases": {"type": "array", "items": {"type": "string"}},
		"bounding_boxes": {
			"type": "array",
			"items": {"type": "array", "items": {"type": "number"}, "minItems": 4, "maxItems": 4}
		},
		"expected_obj1": {"type": "string"},
		"expected_obj2": {"type": "string"},
		"expected_obj3": {"type": "string"},
		"expected_obj4": {"type": "string"}`

var categorySchemas = map[Category]string{
	Counting: `{
	"type": "object",
	"properties": {` + commonProperties + `,
		"expected_obj1": {"type": "string", "minLength": 1},
		"expected_n1": {"type": "integer", "minimum": 1},
		"expected_n2": {"type": "integer", "minimum": 0}
	},
	"required": ["prompt", "expected_obj1", "expected_n1"]
}`,
	Spatial: `{
	"type": "object",
	"properties": {` + commonProperties + `,
		"relation1": {"type": "string", "minLength": 1},
		"relation2": {"type": "string"}
	},
	"required": ["prompt", "expected_obj1", "expected_obj2", "relation1"]
}`,
	Size: `{
	"type": "object",
	"properties": {` + commonProperties + `,
		"relation1": {"type": "string", "minLength": 1},
		"relation2": {"type": "string"}
	},
	"required": ["prompt", "expected_obj1", "expected_obj2", "relation1"]
}`,
	Color: `{
	"type": "object",
	"properties": {` + commonProperties + `,
		"color1": {"type": "string", "minLength": 1},
		"color2": {"type": "string", "minLength": 1},
		"color3": {"type": "string"},
		"color4": {"type": "string"}
	},
	"required": ["prompt", "expected_obj1", "expected_obj2", "color1", "color2"]
}`,
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[Category]*gojsonschema.Schema{}
)

// schemaFor compiles and caches the line schema of a category.
func schemaFor(category Category) (*gojsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[category]; ok {
		return s, nil
	}
	def, ok := categorySchemas[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", category, err)
	}
	schemaCache[category] = s
	return s, nil
}

// validateLine checks one JSON document against the category schema.
func validateLine(schema *gojsonschema.Schema, doc []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("JSON validation failed: %s", strings.Join(errs, ", "))
}
