package dedup

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/config"
	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type stubProvider struct {
	rows      []models.EventSearch
	calls     int
	lastRules []Rule
}

func (s *stubProvider) FindCandidates(_ context.Context, _ enums.EventKind, rules []Rule, _ map[string]string, _ uuid.UUID) ([]models.EventSearch, error) {
	s.calls++
	s.lastRules = rules
	return s.rows, nil
}

func testConfig() config.DedupConfig {
	return config.DedupConfig{ScoreThreshold: 2.0, FuzzyCutoff: 0.8, MaxCandidates: 10}
}

func birthRow(first, family, dob string) models.EventSearch {
	return models.EventSearch{
		EventID:     uuid.New(),
		Kind:        enums.EventKindBirth,
		Status:      enums.EventStatusDeclared,
		TrackingID:  "B000001",
		FirstNames:  first,
		FamilyName:  family,
		DateOfBirth: dob,
	}
}

func TestSearchReturnsHitsAboveThreshold(t *testing.T) {
	match := birthRow("Jane", "Doe", "2020-01-01")
	miss := birthRow("Robert", "Smith", "1999-12-31")
	provider := &stubProvider{rows: []models.EventSearch{miss, match}}
	engine := NewEngine(provider, nil, testConfig(), nil)

	hits, err := engine.Search(context.Background(), enums.EventKindBirth, types.Declaration{
		"firstNames":  "Jane",
		"familyName":  "Doe",
		"dateOfBirth": "2020-01-01",
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if hits[0].EventID != match.EventID {
		t.Fatalf("wrong candidate returned")
	}
	if hits[0].Score < 3.0 {
		t.Fatalf("expected full-match score, got %f", hits[0].Score)
	}
	if len(hits[0].MatchedFields) != 3 {
		t.Fatalf("expected 3 matched fields, got %v", hits[0].MatchedFields)
	}
}

func TestSearchFuzzyMatchScaledByCutoff(t *testing.T) {
	// One edit over five characters = 0.8 similarity, exactly at the cutoff.
	near := birthRow("Jayne", "Doe", "2020-01-01")
	provider := &stubProvider{rows: []models.EventSearch{near}}
	engine := NewEngine(provider, nil, testConfig(), nil)

	hits, err := engine.Search(context.Background(), enums.EventKindBirth, types.Declaration{
		"firstNames":  "Jane",
		"familyName":  "Doe",
		"dateOfBirth": "2020-01-01",
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected near-match hit, got %d", len(hits))
	}
	// 1.0*0.8 (first names) + 1.0 (family) + 1.5 (dob)
	if hits[0].Score < 3.29 || hits[0].Score > 3.31 {
		t.Fatalf("unexpected score %f", hits[0].Score)
	}
}

func TestEmptyFieldsAreSkippedNotMatched(t *testing.T) {
	// Both candidate and corpus row have empty dates; that must not count
	// as an exact match.
	row := birthRow("Alice", "Brown", "")
	provider := &stubProvider{rows: []models.EventSearch{row}}
	engine := NewEngine(provider, nil, testConfig(), nil)

	hits, err := engine.Search(context.Background(), enums.EventKindBirth, types.Declaration{
		"firstNames": "Charlotte",
		"familyName": "Gray",
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %#v", hits)
	}
}

func TestScoreTiesAreAllReturned(t *testing.T) {
	first := birthRow("Jane", "Doe", "2020-01-01")
	second := birthRow("Jane", "Doe", "2020-01-01")
	provider := &stubProvider{rows: []models.EventSearch{first, second}}

	cfg := testConfig()
	cfg.MaxCandidates = 1
	engine := NewEngine(provider, nil, cfg, nil)

	hits, err := engine.Search(context.Background(), enums.EventKindBirth, types.Declaration{
		"firstNames":  "Jane",
		"familyName":  "Doe",
		"dateOfBirth": "2020-01-01",
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("tie must not be arbitrarily broken, got %d hits", len(hits))
	}
}

func TestCustomRulesReachPrefilterAndScoring(t *testing.T) {
	// Default birth rules would score this row on three fields; the custom
	// set only knows family names, and the provider must see that same set.
	row := birthRow("Jane", "Doe", "2020-01-01")
	provider := &stubProvider{rows: []models.EventSearch{row}}

	custom := map[enums.EventKind][]Rule{
		enums.EventKindBirth: {{Field: FieldFamilyName, Match: MatchExact, Boost: 2.5}},
	}
	engine := NewEngine(provider, custom, testConfig(), nil)

	hits, err := engine.Search(context.Background(), enums.EventKindBirth, types.Declaration{
		"firstNames":  "Jane",
		"familyName":  "Doe",
		"dateOfBirth": "2020-01-01",
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(provider.lastRules) != 1 || provider.lastRules[0].Field != FieldFamilyName {
		t.Fatalf("provider did not receive the injected rules: %#v", provider.lastRules)
	}
	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if hits[0].Score != 2.5 {
		t.Fatalf("expected family-name-only score 2.5, got %f", hits[0].Score)
	}
	if len(hits[0].MatchedFields) != 1 || hits[0].MatchedFields[0] != FieldFamilyName {
		t.Fatalf("unexpected matched fields %v", hits[0].MatchedFields)
	}
}

func TestOfficialNameVariantWinsFlattening(t *testing.T) {
	fields := Flatten(types.Declaration{
		"firstNames": "Nickname",
		"names": []any{
			map[string]any{"use": "maiden", "firstNames": "Old"},
			map[string]any{"use": "official", "firstNames": "Jane", "familyName": "Doe"},
		},
	})
	if fields[FieldFirstNames] != "Jane" {
		t.Fatalf("official variant should win, got %q", fields[FieldFirstNames])
	}
	if fields[FieldFamilyName] != "Doe" {
		t.Fatalf("family name not flattened, got %q", fields[FieldFamilyName])
	}
}
