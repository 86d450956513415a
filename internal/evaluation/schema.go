package evaluation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "evaluation-result.json"

var ErrMalformedResponse = errors.New("malformed evaluation response")

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(ResultSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return schema, nil
})

// ResultSchema returns the JSON Schema of a Result as a generic map.
// Unknown properties are tolerated so the service can grow its payload.
func ResultSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fitScore": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"summary":  sectionProp(nil),
			"experience": sectionProp(map[string]any{
				"totalYears": map[string]any{"type": "number", "minimum": 0},
			}),
			"education": sectionProp(map[string]any{
				"level": map[string]any{"type": "string", "enum": EducationLevels},
			}),
			"skills": sectionProp(map[string]any{
				"listed":               stringListProp(),
				"missingForTargetRole": stringListProp(),
				"leftover":             stringListProp(),
			}),
			"languages": sectionProp(map[string]any{
				"detected": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]any{"type": "string"},
							"level": map[string]any{"type": "string"},
						},
						"required": []string{"name"},
					},
				},
			}),
			"certifications": sectionProp(map[string]any{
				"list": stringListProp(),
			}),
			"projects": sectionProp(nil),
			"format": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"clean":    map[string]any{"type": "boolean"},
					"issues":   stringListProp(),
					"state":    stateProp(),
					"feedback": map[string]any{"type": "string"},
				},
				"required": []string{"clean", "issues"},
			},
			"recommendations": stringListProp(),
		},
		"required": []string{
			"fitScore", "summary", "experience", "education", "skills",
			"languages", "certifications", "projects", "format", "recommendations",
		},
	}
}

func sectionProp(extra map[string]any) map[string]any {
	props := map[string]any{
		"state":    stateProp(),
		"feedback": map[string]any{"type": "string"},
	}
	for key, value := range extra {
		props[key] = value
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"state", "feedback"},
	}
}

func stateProp() map[string]any {
	return map[string]any{"type": "string", "enum": States}
}

func stringListProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// Decode validates an untrusted payload and converts it into a Result.
// Every failure wraps ErrMalformedResponse.
func Decode(data []byte) (*Result, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return DecodeValue(payload)
}

// DecodeValue is Decode for an already unmarshalled JSON value.
func DecodeValue(payload any) (*Result, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var result Result
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &result,
		TagName: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &result, nil
}
