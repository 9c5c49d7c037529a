package dedup

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// MatchKind selects how a rule compares the candidate value to the corpus.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// Rule is one per-field matching rule. Exact rules contribute Boost on
// equality; fuzzy rules contribute Boost scaled by string similarity when the
// similarity clears the configured cutoff.
type Rule struct {
	Field string
	Match MatchKind
	Boost float64
}

// Candidate is one ranked duplicate hit.
type Candidate struct {
	EventID       uuid.UUID `json:"eventId"`
	TrackingID    string    `json:"trackingId"`
	Status        enums.EventStatus `json:"status"`
	MatchedFields []string  `json:"matchedFields"`
	Score         float64   `json:"score"`
}
