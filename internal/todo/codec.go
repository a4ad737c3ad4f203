package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/todolist-go/internal/utils"
)

//go:embed tasks.schema.json
var schemaJSON string

const schemaURL = "tasks.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func listSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Encode serializes l as a compact JSON array. A nil list encodes as [].
func Encode(l List) ([]byte, error) {
	if l == nil {
		l = List{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal task list: %w", err)
	}
	return data, nil
}

// Decode parses data produced by Encode. The payload must satisfy the task
// list schema and List.Validate; otherwise an error describing every problem
// is returned.
func Decode(data []byte) (List, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty payload")
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}

	s, err := listSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, schemaErrors(err)
	}

	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = List{}
	}
	return l, nil
}

func schemaErrors(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var errs []error
	collectSchemaErrors(&errs, ve)
	return errors.Join(errs...)
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}
