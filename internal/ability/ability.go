// Package ability defines the ability record, the trigger descriptor union
// and the curated effect catalog.
package ability

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VarPrefix namespaces every derived variable name.
const VarPrefix = "Ability"

// Ability is one emitted ability record.
type Ability struct {
	ID         int    `json:"id" jsonschema:"title=Ability id,minimum=1"`
	Identifier string `json:"identifier" jsonschema:"title=Canonical identifier,description=Lowercase hyphen-separated slug or unknown_<id>"`
	VarName    string `json:"var_name" jsonschema:"title=Variable name,pattern=^Ability"`
	Name       string `json:"name" jsonschema:"title=Localized display name"`
	Effect     string `json:"effect" jsonschema:"title=Effect description,description=Free text carried over between runs"`
	Params     Params `json:"params" jsonschema:"title=Trigger parameters,description=Object whose trigger key selects the remaining attributes"`
}

// UnknownIdentifier is the placeholder identifier for an id the reference
// table does not list.
func UnknownIdentifier(id int) string {
	return fmt.Sprintf("unknown_%d", id)
}

// VarName derives the variable name for identifier: each hyphen-separated
// segment is title-cased and the segments are joined behind VarPrefix.
// Title-casing follows Unicode word boundaries, so a letter after a digit or
// an apostrophe stays lower case ("a1b" gives "AbilityA1b"). PokeAPI
// identifiers are lower-case letters and hyphens, where this matches
// per-word capitalization exactly.
//
// Postcondition: VarName("flash-fire") == "AbilityFlashFire".
func VarName(identifier string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.WriteString(VarPrefix)
	for _, segment := range strings.Split(identifier, "-") {
		b.WriteString(caser.String(segment))
	}
	return b.String()
}
