package benchmark

import (
	"fmt"
	"strings"
)

// MissingConfigError signals that a required configuration value is absent.
// Callers may recover by asking the user for the value and retrying.
type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration value '%s'", e.Key)
}

// SchemaError reports a document that does not match its schema.
type SchemaError struct {
	Document string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s is not valid: %v", e.Document, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// MissingMetadataError reports a definition without the required metadata.
type MissingMetadataError struct {
	Kind  Kind
	Name  string
	Field string
}

func (e *MissingMetadataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s '%s' has no metadata block", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s '%s' metadata is missing '%s'", e.Kind, e.Name, e.Field)
}

// ModuleNotFoundError reports a name that is neither a predefined definition
// nor an existing file.
type ModuleNotFoundError struct {
	Kind Kind
	Name string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' is not predefined and is not a path to an existing file", e.Kind, e.Name)
}

// MissingCDNCredentialsError reports an upload attempted without the
// settings needed to reach the CDN.
type MissingCDNCredentialsError struct {
	Missing []string
}

func (e *MissingCDNCredentialsError) Error() string {
	return fmt.Sprintf("uploading requires %s", strings.Join(e.Missing, " and "))
}

// OutputDirExistsError reports an output directory that would be clobbered.
type OutputDirExistsError struct {
	Path string
}

func (e *OutputDirExistsError) Error() string {
	return fmt.Sprintf("output directory %s already exists (use --overwrite to replace it)", e.Path)
}
