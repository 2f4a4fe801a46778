package bank

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const questionsSchemaJSON = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["questions"],
    "properties": {
      "questions": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["question", "options", "correct"],
          "properties": {
            "question": {"type": "string", "minLength": 1},
            "options": {
              "type": "array",
              "minItems": 4,
              "maxItems": 4,
              "items": {"type": "string", "minLength": 1}
            },
            "correct": {"type": "string", "enum": ["A", "B", "C", "D"]}
          }
        }
      }
    }
  }
}`

const resourcesSchemaJSON = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["name", "resources"],
    "properties": {
      "name": {"type": "string"},
      "resources": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["title", "url"],
          "properties": {
            "title": {"type": "string", "minLength": 1},
            "url": {"type": "string", "minLength": 1},
            "description": {"type": "string"}
          }
        }
      }
    }
  }
}`

var (
	questionsSchema = mustCompile("schema://tutorchat/questions.json", questionsSchemaJSON)
	resourcesSchema = mustCompile("schema://tutorchat/resources.json", resourcesSchemaJSON)
)

func mustCompile(url, src string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("parse schema %s: %v", url, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", url, err))
	}
	return c.MustCompile(url)
}

func validateDocument(s *jsonschema.Schema, raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
