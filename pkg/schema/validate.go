package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xeipuuv/gojsonschema"
)

// Kind identifies which closed schema a payload must conform to.
type Kind string

const (
	KindRPLSample   Kind = "RPLSampleV1"
	KindWELDoc      Kind = "WELDocV1"
	KindSimpleExpl  Kind = "SimpleExplV1"
)

var rplSampleSchema = mustSchema(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["belief"],
  "properties": {
    "belief": {
      "type": "object",
      "additionalProperties": false,
      "required": ["prob_true", "label"],
      "properties": {
        "prob_true": {"type": "number", "minimum": 0, "maximum": 1},
        "label": {"type": "string", "enum": ["very_unlikely","unlikely","uncertain","likely","very_likely"]}
      }
    },
    "reasons": {"type": "array", "items": {"type": "string"}},
    "assumptions": {"type": "array", "items": {"type": "string"}},
    "uncertainties": {"type": "array", "items": {"type": "string"}},
    "flags": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "refused": {"type": "boolean"},
        "off_topic": {"type": "boolean"}
      }
    }
  }
}`)

var welDocSchema = mustSchema(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["stance_prob_true", "stance_label"],
  "properties": {
    "stance_prob_true": {"type": "number", "minimum": 0, "maximum": 1},
    "stance_label": {"type": "string", "enum": ["supports","contradicts","mixed","irrelevant"]},
    "support_bullets": {"type": "array", "items": {"type": "string"}},
    "oppose_bullets": {"type": "array", "items": {"type": "string"}},
    "notes": {"type": "array", "items": {"type": "string"}}
  }
}`)

var simpleExplSchema = mustSchema(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["title", "body_paragraphs"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "body_paragraphs": {"type": "array", "minItems": 1, "items": {"type": "string"}}
  }
}`)

func mustSchema(src string) *gojsonschema.Schema {
	loader := gojsonschema.NewStringLoader(src)
	s, err := gojsonschema.NewSchema(loader)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid embedded schema: %v", err))
	}
	return s
}

func schemaFor(k Kind) *gojsonschema.Schema {
	switch k {
	case KindRPLSample:
		return rplSampleSchema
	case KindWELDoc:
		return welDocSchema
	case KindSimpleExpl:
		return simpleExplSchema
	default:
		return nil
	}
}

// ValidateStrict validates a decoded JSON object (map[string]any) against
// the named schema in strict mode (no unknown fields, no coercion).
func ValidateStrict(k Kind, data any) ([]string, error) {
	s := schemaFor(k)
	if s == nil {
		return nil, fmt.Errorf("schema: unknown kind %q", k)
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	return nil, describeErrors(result)
}

// ValidateLenient re-validates after coercing string-typed numbers/bools to
// their natural types, returning a "validation_coerced" warning on success.
func ValidateLenient(k Kind, data any) (any, []string, error) {
	coerced, changed := coerceTypes(data)
	warnings, err := ValidateStrict(k, coerced)
	if err != nil {
		return nil, nil, err
	}
	if changed {
		warnings = append(warnings, "validation_coerced")
	}
	return coerced, warnings, nil
}

func describeErrors(result *gojsonschema.Result) error {
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	b, _ := json.Marshal(msgs)
	return fmt.Errorf("schema validation failed: %s", string(b))
}

// coerceTypes walks a decoded JSON value and converts string-encoded
// numbers/bools into their natural types, used for lenient re-validation.
func coerceTypes(v any) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		changed := false
		out := make(map[string]any, len(t))
		for k, val := range t {
			c, ch := coerceTypes(val)
			out[k] = c
			changed = changed || ch
		}
		return out, changed
	case []any:
		changed := false
		out := make([]any, len(t))
		for i, val := range t {
			c, ch := coerceTypes(val)
			out[i] = c
			changed = changed || ch
		}
		return out, changed
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
		if b, err := strconv.ParseBool(t); err == nil {
			return b, true
		}
		return t, false
	default:
		return v, false
	}
}
