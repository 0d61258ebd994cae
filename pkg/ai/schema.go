package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model responses are validated against a JSON schema before decoding so a
// malformed reply surfaces as a typed error instead of silently producing a
// zero-valued struct.

var preCheckSchema = jsonschema.MustCompileString("precheck.json", `{
	"type": "object",
	"required": ["language", "isEnglish", "topicAlignmentScore", "topicSummary"],
	"properties": {
		"language": {"type": "string", "minLength": 1},
		"isEnglish": {"type": "boolean"},
		"topicAlignmentScore": {"type": "number", "minimum": 0, "maximum": 1},
		"topicSummary": {"type": "string"}
	}
}`)

var evaluationSchema = jsonschema.MustCompileString("evaluation.json", `{
	"type": "object",
	"required": ["dimensionScores", "band", "strengths", "weaknesses", "nextSteps", "confidence"],
	"properties": {
		"dimensionScores": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "number", "minimum": 0}
		},
		"band": {"type": "string", "minLength": 1},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"weaknesses": {"type": "array", "items": {"type": "string"}},
		"nextSteps": {"type": "array", "items": {"type": "string"}},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reviewRecommended": {"type": "boolean"}
	}
}`)

var rewriteSchema = jsonschema.MustCompileString("rewrite.json", `{
	"type": "object",
	"required": ["rewrittenText", "rationale"],
	"properties": {
		"rewrittenText": {"type": "string", "minLength": 1},
		"rationale": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		}
	}
}`)

// decodeValidated checks content against the schema and unmarshals it into
// out. The returned error names the failing operation.
func decodeValidated(operation, content string, schema *jsonschema.Schema, out interface{}) error {
	var doc interface{}
	decoder := json.NewDecoder(bytes.NewReader([]byte(content)))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("%s: response is not valid json: %w", operation, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s: response failed schema validation: %w", operation, err)
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}

	return nil
}
