package schema

import "github.com/invopop/jsonschema"

type Schema struct {
	Title      string   `json:"title,omitempty"`
	Properties any      `json:"properties"`
	Required   []string `json:"required,omitempty"`
}

// Usage: see https://github.com/invopop/jsonschema?tab=readme-ov-file
func Of(v any) Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(v)
	return Schema{
		Properties: schema.Properties,
		Required:   schema.Required,
	}
}

func Get[T any]() Schema {
	var v T
	return Of(v)
}
