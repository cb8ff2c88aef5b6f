package classifier

import (
	"github.com/invopop/jsonschema"

	"archieos.app/intake/common/llm"
	"archieos.app/intake/internal/domain"
)

const schemaName = "classification_v1"

var classificationSchema = buildSchema()

// buildSchema reflects ClassificationResult and tightens it for structured
// output: closed enums from the domain sets, and optional fields expressed
// as nullable rather than omitted.
func buildSchema() *jsonschema.Schema {
	s := llm.GenerateSchema[domain.ClassificationResult]()

	if prop, ok := s.Properties.Get("schema_version"); ok {
		prop.Enum = []any{domain.ClassificationSchemaVersion}
	}
	setEnum(s, "message_type", domain.MessageTypes)
	setEnum(s, "task_key", domain.TaskKeys)
	setEnum(s, "group_key", domain.GroupKeys)

	if listing, ok := s.Properties.Get("listing"); ok {
		setEnum(listing, "type", domain.ListingTypes)
		llm.Nullable(listing, "type", "address")
	}

	return llm.Nullable(s, "task_key", "group_key", "assignee_hint", "due_date", "task_title", "explanations")
}

func setEnum[T ~string](s *jsonschema.Schema, name string, values []T) {
	prop, ok := s.Properties.Get(name)
	if !ok {
		return
	}
	prop.Enum = make([]any, len(values))
	for i, v := range values {
		prop.Enum[i] = string(v)
	}
}
