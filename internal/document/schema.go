package document

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema reflects a JSON Schema describing Document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Document))
	schema.Title = "Ability configuration"
	schema.Description = "Generated ability records with localized names and trigger parameters"
	return schema
}

// WriteSchema writes Schema() to path, replacing any existing file.
func WriteSchema(path string) error {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return WriteAtomic(path, append(data, '\n'))
}
