package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	gen "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "lmbench-config.schema.json"

// ValidationError reports a configuration value rejected by the schema or by
// one of the semantic checks.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid configuration key '%s': %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid value '%s' for '%s': %s", e.Value, e.Key, e.Reason)
}

// Schema reflects the JSON Schema of the configuration file from Config.
func Schema() *gen.Schema {
	r := &gen.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}
	schema := r.Reflect(&Config{})
	schema.Title = "lmbench Configuration"
	schema.Description = "Schema for the lmbench configuration file."
	schema.Required = nil
	return schema
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := json.Marshal(Schema())
		if err != nil {
			compileErr = fmt.Errorf("marshal config schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("add config schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
	})
	return compiled, compileErr
}

// validateDocument checks a whole decoded configuration document against the
// reflected schema.
func validateDocument(doc map[string]interface{}) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	// Round trip through JSON so the validator sees JSON-native types.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config document: %w", err)
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode config document: %w", err)
	}
	return schema.Validate(v)
}

// Validate checks a single key/value pair: the key must be known, the value
// must satisfy the schema, and path values must point at something usable.
func Validate(key, value string) error {
	if !IsKnownKey(key) {
		return &ValidationError{Key: key, Reason: "unknown configuration key"}
	}
	if err := validateDocument(map[string]interface{}{key: value}); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Key: key, Value: value, Reason: leafMessage(verr)}
		}
		return err
	}

	switch key {
	case KeyCacheDir:
		return validateCacheDir(value)
	case KeyMatlabBinPath:
		return validateMatlabBin(value)
	}
	return nil
}

func leafMessage(verr *jsonschema.ValidationError) string {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr.Message
}

func validateCacheDir(value string) error {
	if !filepath.IsAbs(value) {
		return &ValidationError{Key: KeyCacheDir, Value: value, Reason: "must be an absolute path"}
	}
	info, err := os.Stat(value)
	if err == nil {
		if !info.IsDir() {
			return &ValidationError{Key: KeyCacheDir, Value: value, Reason: "exists and is not a directory"}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("check cache directory: %w", err)
	}
	// A missing cache directory is created on first use, but its parent has
	// to exist.
	parent, err := os.Stat(filepath.Dir(value))
	if err != nil || !parent.IsDir() {
		return &ValidationError{Key: KeyCacheDir, Value: value, Reason: "parent directory does not exist"}
	}
	return nil
}

func validateMatlabBin(value string) error {
	info, err := os.Stat(value)
	if err != nil {
		return &ValidationError{Key: KeyMatlabBinPath, Value: value, Reason: "file does not exist"}
	}
	if !info.Mode().IsRegular() {
		return &ValidationError{Key: KeyMatlabBinPath, Value: value, Reason: "not a regular file"}
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return &ValidationError{Key: KeyMatlabBinPath, Value: value, Reason: "file is not executable"}
	}
	return nil
}
