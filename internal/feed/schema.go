package feed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed feed.schema.json
var feedSchemaJSON string

var feedSchema = jsonschema.MustCompileString("feed.schema.json", feedSchemaJSON)

// validatePayload checks that body is JSON shaped like a feed.
func validatePayload(body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%w: body is not valid JSON: %v", ErrInvalidPayload, err)
	}
	if err := feedSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
