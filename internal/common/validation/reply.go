package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// ErrNoJSONObject is returned when a model reply contains no {...} span.
var ErrNoJSONObject = errors.New("no JSON object in reply")

// ExtractJSONObject returns the span from the first '{' to the last '}'.
// Models often wrap the object in prose or code fences.
func ExtractJSONObject(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return reply[start : end+1], nil
}

// DecodeReply extracts the JSON object from reply, validates it against
// schemaJSON (draft-07) and weakly decodes it into out.
func DecodeReply(reply, schemaJSON string, out interface{}) error {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("parse reply: %w", err)
	}

	if schemaJSON != "" {
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(schemaJSON),
			gojsonschema.NewGoLoader(doc),
		)
		if err != nil {
			return fmt.Errorf("schema validation error: %w", err)
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return fmt.Errorf("reply does not match schema: %s", strings.Join(msgs, "; "))
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
