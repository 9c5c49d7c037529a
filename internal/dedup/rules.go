package dedup

import "github.com/angelmondragon/civreg-backend/pkg/enums"

// DefaultRules returns the per-event-kind matching rules. They are plain data
// so deployments can swap them out and tests can inject their own.
func DefaultRules() map[enums.EventKind][]Rule {
	return map[enums.EventKind][]Rule{
		enums.EventKindBirth: {
			{Field: FieldFirstNames, Match: MatchFuzzy, Boost: 1.0},
			{Field: FieldFamilyName, Match: MatchFuzzy, Boost: 1.0},
			{Field: FieldDateOfBirth, Match: MatchExact, Boost: 1.5},
			{Field: FieldGender, Match: MatchExact, Boost: 0.3},
		},
		enums.EventKindDeath: {
			{Field: FieldFirstNames, Match: MatchFuzzy, Boost: 1.0},
			{Field: FieldFamilyName, Match: MatchFuzzy, Boost: 1.0},
			{Field: FieldDateOfBirth, Match: MatchExact, Boost: 1.5},
			{Field: FieldPlaceOfEvent, Match: MatchExact, Boost: 0.5},
		},
		enums.EventKindMarriage: {
			{Field: FieldFirstNames, Match: MatchFuzzy, Boost: 1.0},
			{Field: FieldFamilyName, Match: MatchFuzzy, Boost: 1.0},
			{Field: FieldPlaceOfEvent, Match: MatchExact, Boost: 0.5},
		},
	}
}
