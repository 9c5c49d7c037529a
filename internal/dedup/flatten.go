package dedup

import (
	"strings"

	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// Canonical flattened field names shared by the rules, the search read model
// and the indexer.
const (
	FieldFirstNames   = "first_names"
	FieldFamilyName   = "family_name"
	FieldDateOfBirth  = "date_of_birth"
	FieldGender       = "gender"
	FieldPlaceOfEvent = "place_of_event"
)

// Flatten reduces a declaration to the flat matching fields. The official
// name variant wins over top-level shorthand fields; missing values flatten
// to the empty string, which the scorer then skips.
func Flatten(declaration types.Declaration) map[string]string {
	fields := map[string]string{
		FieldFirstNames:   declaration.StringField("firstNames"),
		FieldFamilyName:   declaration.StringField("familyName"),
		FieldDateOfBirth:  declaration.StringField("dateOfBirth"),
		FieldGender:       declaration.StringField("gender"),
		FieldPlaceOfEvent: declaration.StringField("placeOfEvent"),
	}

	if names, ok := declaration["names"].([]any); ok {
		for _, raw := range names {
			variant, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if use, _ := variant["use"].(string); use != "official" {
				continue
			}
			if v, _ := variant["firstNames"].(string); v != "" {
				fields[FieldFirstNames] = v
			}
			if v, _ := variant["familyName"].(string); v != "" {
				fields[FieldFamilyName] = v
			}
			break
		}
	}

	for key, value := range fields {
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}
