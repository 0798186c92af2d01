package datagov

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The resource API wraps its rows in a JSON envelope. Only the parts the
// pipeline relies on are pinned down here; extra envelope fields are allowed.
const envelopeSchema = `{
  "type": "object",
  "properties": {
    "records": {
      "type": "array",
      "items": { "type": "object" }
    },
    "count": { "type": ["integer", "string"] },
    "total": { "type": ["integer", "string"] }
  }
}`

var envelopeValidator = jsonschema.MustCompileString("envelope.json", envelopeSchema)

func validateEnvelope(body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return envelopeValidator.Validate(doc)
}
