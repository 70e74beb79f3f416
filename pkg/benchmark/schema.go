package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const experimentSchemaURL = "lmbench-experiment.schema.json"

// ExperimentSchema is the JSON Schema every experiment file must satisfy.
const ExperimentSchema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "title": "lmbench Experiment",
    "description": "The datasets and methods a benchmark run is made of.",
    "type": "object",
    "properties": {
        "training_data": {
            "type": "array",
            "description": "Datasets trainable methods are trained on.",
            "items": { "$ref": "#/definitions/dataset" }
        },
        "testing_data": {
            "type": "array",
            "description": "Datasets every method is evaluated on.",
            "minItems": 1,
            "items": { "$ref": "#/definitions/dataset" }
        },
        "methods": {
            "type": "array",
            "description": "Trainable methods.",
            "items": { "type": "string", "minLength": 1 }
        },
        "untrainable_methods": {
            "type": "array",
            "description": "Methods that ship already trained.",
            "items": { "type": "string", "minLength": 1 }
        }
    },
    "required": ["testing_data"],
    "anyOf": [
        { "required": ["methods"] },
        { "required": ["untrainable_methods"] }
    ],
    "dependencies": {
        "methods": ["training_data"]
    },
    "additionalProperties": false,
    "definitions": {
        "dataset": {
            "oneOf": [
                { "type": "string", "minLength": 1 },
                {
                    "type": "object",
                    "properties": {
                        "name": { "type": "string", "minLength": 1 },
                        "lm_post_load": {
                            "type": "array",
                            "description": "Landmark processes applied after loading.",
                            "items": { "type": "string", "minLength": 1 }
                        }
                    },
                    "required": ["name"],
                    "additionalProperties": false
                }
            ]
        }
    }
}`

var (
	experimentSchemaOnce sync.Once
	experimentSchema     *jsonschema.Schema
	experimentSchemaErr  error
)

func compiledExperimentSchema() (*jsonschema.Schema, error) {
	experimentSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(experimentSchemaURL, strings.NewReader(ExperimentSchema)); err != nil {
			experimentSchemaErr = fmt.Errorf("add experiment schema: %w", err)
			return
		}
		experimentSchema, experimentSchemaErr = compiler.Compile(experimentSchemaURL)
	})
	return experimentSchema, experimentSchemaErr
}

// validateYAML decodes data and validates it against schema. YAML values are
// passed through JSON so the validator only sees JSON-native types.
func validateYAML(schema *jsonschema.Schema, data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert document to JSON: %w", err)
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return schema.Validate(v)
}
