package definition

import (
	"fmt"

	"cuelang.org/go/cue/cuecontext"
)

// schemaSrc is a minimal shape check for a decoded definition document:
// "discover"/"analysis"/"intellisense" must be objects if present,
// "inherits" must be a string or a list of strings, "name" must be a
// string — before the action parser or merge ever sees the document.
// It intentionally does not constrain the free-form action-block
// values or intellisense fragments, since those are open-ended,
// dynamically typed fragments by design.
const schemaSrc = `
name?:         string
version?:      string | number
inherits?:     string | [...string]
intellisense?: {...}
discover?:     {...}
analysis?:     {...}
conditions?:   {...}
`

var cueCtx = cuecontext.New()

// validateSchema checks a decoded top-level definition object against
// schemaSrc. A failure here is a definition.ErrParse condition: the
// loader treats it exactly like any other malformed JSON.
func validateSchema(root *OrderedMap) error {
	schema := cueCtx.CompileString(schemaSrc)
	if schema.Err() != nil {
		// A broken schema is a bug in toolsight itself, not in the
		// definition file; don't reject user definitions for it.
		return nil
	}
	doc := cueCtx.Encode(root.ToMap())
	if doc.Err() != nil {
		return fmt.Errorf("encode definition for validation: %w", doc.Err())
	}
	unified := schema.Unify(doc)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
