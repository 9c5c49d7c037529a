// Package dedup implements the duplicate search over the flattened
// event_search read model. Rules are configurable per event kind; scoring is
// done in process so the store only has to prefilter.
package dedup

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/config"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/metrics"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type engine struct {
	provider Provider
	rules    map[enums.EventKind][]Rule
	cfg      config.DedupConfig
	metrics  *metrics.ActionMetrics
}

// NewEngine builds the duplicate search engine. A nil rules map falls back to
// the defaults; metrics may be nil.
func NewEngine(provider Provider, rules map[enums.EventKind][]Rule, cfg config.DedupConfig, m *metrics.ActionMetrics) Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &engine{provider: provider, rules: rules, cfg: cfg, metrics: m}
}

// Search flattens the prospective declaration, prefilters the corpus and
// scores every row, returning hits at or above the threshold ranked by score
// descending. Ties are all returned; the record under evaluation is excluded.
func (e *engine) Search(ctx context.Context, kind enums.EventKind, declaration types.Declaration, exclude uuid.UUID) ([]Candidate, error) {
	start := time.Now()
	fields := Flatten(declaration)

	rows, err := e.provider.FindCandidates(ctx, kind, e.rules[kind], fields, exclude)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "searching for duplicates")
	}

	hits := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidate := e.score(kind, fields, row)
		if candidate.Score >= e.cfg.ScoreThreshold {
			hits = append(hits, candidate)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	hits = e.cap(hits)

	e.metrics.ObserveDedupSearch(time.Since(start), len(hits) > 0)
	return hits, nil
}

func (e *engine) score(kind enums.EventKind, fields map[string]string, row models.EventSearch) Candidate {
	candidate := Candidate{
		EventID:    row.EventID,
		TrackingID: row.TrackingID,
		Status:     row.Status,
	}

	for _, rule := range e.rules[kind] {
		value := fields[rule.Field]
		if value == "" {
			// Empty values are skipped, never an empty-equals-empty hit.
			continue
		}
		rowValue := fieldValue(row, rule.Field)
		if rowValue == "" {
			continue
		}

		switch rule.Match {
		case MatchExact:
			if equalFold(value, rowValue) {
				candidate.Score += rule.Boost
				candidate.MatchedFields = append(candidate.MatchedFields, rule.Field)
			}
		case MatchFuzzy:
			if sim := similarity(value, rowValue); sim >= e.cfg.FuzzyCutoff {
				candidate.Score += rule.Boost * sim
				candidate.MatchedFields = append(candidate.MatchedFields, rule.Field)
			}
		}
	}
	return candidate
}

// cap trims to the configured maximum but keeps every candidate tied with the
// last kept score, so a tie is never arbitrarily broken.
func (e *engine) cap(hits []Candidate) []Candidate {
	max := e.cfg.MaxCandidates
	if max <= 0 || len(hits) <= max {
		return hits
	}
	cut := max
	for cut < len(hits) && hits[cut].Score == hits[max-1].Score {
		cut++
	}
	return hits[:cut]
}

func fieldValue(row models.EventSearch, field string) string {
	switch field {
	case FieldFirstNames:
		return row.FirstNames
	case FieldFamilyName:
		return row.FamilyName
	case FieldDateOfBirth:
		return row.DateOfBirth
	case FieldGender:
		return row.Gender
	case FieldPlaceOfEvent:
		return row.PlaceOfEvent
	}
	return ""
}

func equalFold(a, b string) bool {
	return similarity(a, b) == 1
}
