// Package jsonrepair implements tolerant JSON extraction/repair of raw LLM
// output text into schema-validated objects (spec §4.2), grounded on
// original_source/heretix/provider/json_utils.py.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/proofline/proofline/pkg/schema"
)

var (
	fenceRe     = regexp.MustCompile(`(?is)` + "```" + `(?:json)?\s*(.*?)` + "```")
	reasoningRe = regexp.MustCompile(`(?is)<think>.*?</\s*think\s*>|<thinking>.*?</\s*thinking\s*>|<thought>.*?</\s*thought\s*>|<reasoning>.*?</\s*reasoning\s*>|<reflection>.*?</\s*reflection\s*>|<scratchpad>.*?</\s*scratchpad\s*>`)
)

// ParseError indicates no JSON block could be found or parsed at all.
type ParseError struct{ Reason string }

func (e *ParseError) Error() string { return "jsonrepair: parse error: " + e.Reason }

// SchemaError indicates a JSON block parsed but failed schema validation
// in both strict and lenient mode.
type SchemaError struct{ Cause error }

func (e *SchemaError) Error() string { return "jsonrepair: schema error: " + e.Cause.Error() }
func (e *SchemaError) Unwrap() error { return e.Cause }

// stripReasoningSections removes <think>/<thinking>/... tag pairs
// (case-insensitive) repeatedly until a fixed point, per §4.2 step 1.
func stripReasoningSections(text string) string {
	for {
		next := reasoningRe.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

// stripMarkdownJSON removes Markdown code fences and discards content
// outside the first balanced {...} or [...] block, per §4.2 step 3.
func stripMarkdownJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ParseError{Reason: "input text is empty"}
	}

	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}

	var startChar, endChar byte
	switch {
	case strings.ContainsRune(trimmed, '{'):
		startChar, endChar = '{', '}'
	case strings.ContainsRune(trimmed, '['):
		startChar, endChar = '[', ']'
	default:
		return "", &ParseError{Reason: "no JSON object/array found in text"}
	}

	startIdx := strings.IndexByte(trimmed, startChar)
	depth := 0
	inString, escaped := false, false
	for i := startIdx; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == startChar:
			depth++
		case c == endChar:
			depth--
			if depth == 0 {
				return trimmed[startIdx : i+1], nil
			}
		}
	}
	return "", &ParseError{Reason: "malformed JSON payload"}
}

// ExtractAndValidate parses raw provider output text and validates it
// against the named schema, returning the decoded object as a
// map[string]any plus any warnings accumulated along the way.
//
// Algorithm per §4.2:
//  1. Strip reasoning tags to a fixed point.
//  2. Attempt strict JSON parse.
//  3. On failure, strip fences / discard surrounding text, reparse, warn
//     "json_repaired_simple".
//  4. Validate strict; on failure validate lenient and warn
//     "validation_coerced"; on failure propagate SchemaError.
func ExtractAndValidate(rawText string, kind schema.Kind) (map[string]any, []string, error) {
	if rawText == "" {
		return nil, nil, &ParseError{Reason: "raw_text must be non-empty"}
	}

	var warnings []string
	sanitized := stripReasoningSections(rawText)

	var data any
	if err := json.Unmarshal([]byte(sanitized), &data); err != nil {
		cleaned, serr := stripMarkdownJSON(sanitized)
		if serr != nil {
			return nil, nil, serr
		}
		if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
			return nil, nil, &ParseError{Reason: fmt.Sprintf("invalid JSON after repair: %v", err)}
		}
		warnings = append(warnings, "json_repaired_simple")
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return nil, nil, &ParseError{Reason: "top-level JSON value is not an object"}
	}

	if _, err := schema.ValidateStrict(kind, obj); err == nil {
		return obj, warnings, nil
	}

	coerced, lenientWarnings, err := schema.ValidateLenient(kind, obj)
	if err != nil {
		return nil, nil, &SchemaError{Cause: err}
	}
	warnings = append(warnings, lenientWarnings...)
	return coerced.(map[string]any), warnings, nil
}
