package task

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedRecord is returned when persisted data is missing a required
// field or holds a value of the wrong type.
var ErrMalformedRecord = errors.New("malformed task record")

// Indent is the indentation used when writing task files.
const Indent = "    "

//go:embed tasks.schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/nibzard/taskmgr-go/tasks.schema.json"

var listSchema, taskSchema = mustCompileSchemas()

func mustCompileSchemas() (*jsonschema.Schema, *jsonschema.Schema) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("task: add schema resource: %v", err))
	}
	return compiler.MustCompile(schemaURL), compiler.MustCompile(schemaURL + "#/$defs/task")
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Decode reconstructs a single task from its JSON object.
//
// Only structure is checked: every field must be present with the right
// JSON type. The priority range is not enforced and created_at is kept
// verbatim. Unknown fields are ignored.
func Decode(data []byte) (Task, error) {
	if err := validateStructure(taskSchema, data); err != nil {
		return Task{}, err
	}
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, &ValidationError{Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
	}
	return t, nil
}

// DecodeList reconstructs an ordered task list from a JSON array. It applies
// the same structural checks as Decode to every element.
func DecodeList(data []byte) ([]Task, error) {
	if err := validateStructure(listSchema, data); err != nil {
		return nil, err
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, &ValidationError{Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
	}
	return tasks, nil
}

// EncodeList writes tasks as an indented JSON array with a trailing newline.
// An empty list encodes as []. Characters such as & and < are written as
// they are.
func EncodeList(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return buf.Bytes(), nil
}

// ValidatePriorities is the opt-in strict pass over loaded tasks. It returns
// a *ValidationError wrapping ErrInvalidPriority for the first task whose
// priority is out of range.
func ValidatePriorities(tasks []Task) error {
	for i, t := range tasks {
		if err := CheckPriority(t.Priority); err != nil {
			return &ValidationError{
				Path: fmt.Sprintf("[%d].priority", i),
				Err:  err,
			}
		}
	}
	return nil
}

func validateStructure(schema *jsonschema.Schema, data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationError{Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
	}
	if err := schema.Validate(doc); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError reduces a schema failure to its first leaf cause.
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err)}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ValidationError{
		Path: jsonPointerToPath(ve.InstanceLocation),
		Err:  fmt.Errorf("%w: %s", ErrMalformedRecord, ve.Message),
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
