package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

var ErrSchemaMismatch = errors.New("model output does not match schema")

// GenerateSchema reflects a strict JSON schema for T: every property is
// required and additional properties are rejected.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Nullable rewrites the named properties of s so that they also accept null.
// Structured-output providers require every property to be present, so
// optional values are expressed as "T or null" instead of being omitted.
func Nullable(s *jsonschema.Schema, names ...string) *jsonschema.Schema {
	if s == nil || s.Properties == nil {
		return s
	}
	for _, name := range names {
		prop, ok := s.Properties.Get(name)
		if !ok || prop == nil {
			continue
		}
		inner := *prop
		*prop = jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{&inner, {Type: "null"}},
		}
	}
	return s
}

// SchemaValidator validates raw JSON documents against a compiled schema.
type SchemaValidator struct {
	schema *validator.Schema
}

// CompileSchema compiles any JSON-marshalable schema document.
func CompileSchema(name string, schema any) (*SchemaValidator, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}

	doc, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", name, err)
	}

	url := name + ".json"
	c := validator.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return &SchemaValidator{schema: compiled}, nil
}

// Validate checks raw against the schema.
func (v *SchemaValidator) Validate(raw []byte) error {
	inst, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

type validatorCache struct {
	mu    sync.Mutex
	byKey map[string]*SchemaValidator
}

func newValidatorCache() *validatorCache {
	return &validatorCache{byKey: make(map[string]*SchemaValidator)}
}

func (c *validatorCache) get(name string, schema any) (*SchemaValidator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.byKey[name]; ok {
		return v, nil
	}
	v, err := CompileSchema(name, schema)
	if err != nil {
		return nil, err
	}
	c.byKey[name] = v
	return v, nil
}
