package generation

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Wire shapes of the structured model output, one per call.

type warmupOutput struct {
	Reply string `json:"reply"`
}

type beatOutput struct {
	StoryContinuation string       `json:"story_continuation"`
	Options           []beatOption `json:"options"`
}

type beatOption struct {
	Text                string `json:"text"`
	IntroducesCharacter bool   `json:"introduces_character"`
	NewCharacterLabel   string `json:"new_character_label,omitempty"`
	NewCharacterKind    string `json:"new_character_kind,omitempty"`
}

type traitsQuestionOutput struct {
	Question        string   `json:"question"`
	SuggestedTraits []string `json:"suggested_traits"`
}

type endingOutput struct {
	Endings []endingCandidate `json:"endings"`
}

type endingCandidate struct {
	Text string `json:"text"`
}

// schemaJSON derives the JSON schema for an output type. The schema is
// embedded in the prompt so the model produces parseable output.
func schemaJSON[T any]() string {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("failed to derive schema: %v", err))
	}
	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal schema: %v", err))
	}
	return string(data)
}

var (
	warmupSchemaJSON         = schemaJSON[warmupOutput]()
	beatSchemaJSON           = schemaJSON[beatOutput]()
	traitsQuestionSchemaJSON = schemaJSON[traitsQuestionOutput]()
	endingSchemaJSON         = schemaJSON[endingOutput]()
)
