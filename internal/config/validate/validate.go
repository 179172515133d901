package validate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/attributes.schema.json
var attributesSchema []byte

const attributesSchemaName = "https://open-edge-platform.github.io/rabbitmq-provisioner/attributes.schema.json"

// AttributesSchema returns the embedded attribute file schema.
func AttributesSchema() []byte {
	return attributesSchema
}

// ValidateAttributesJSON validates a JSON attribute document against the
// embedded schema.
func ValidateAttributesJSON(data []byte) error {
	if err := ValidateAgainstSchema(attributesSchemaName, attributesSchema, data, ""); err != nil {
		return fmt.Errorf("attribute validation failed: %w", err)
	}
	return nil
}

// ValidateAgainstSchema compiles schema under name and validates data
// against it. A non-empty ref selects a subschema such as "#/definitions/port".
func ValidateAgainstSchema(name string, schema []byte, data []byte, ref string) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("loading schema %s: %w", name, err)
	}

	sch, err := compiler.Compile(name + ref)
	if err != nil {
		return fmt.Errorf("compiling schema %s: %w", name, err)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		return err
	}
	return nil
}
