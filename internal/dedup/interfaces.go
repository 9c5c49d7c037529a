package dedup

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// Provider narrows the search corpus to plausibly-matching rows. Exact
// scoring happens in the engine; the provider only prefilters.
type Provider interface {
	FindCandidates(ctx context.Context, kind enums.EventKind, rules []Rule, fields map[string]string, exclude uuid.UUID) ([]models.EventSearch, error)
}

// Engine is the duplicate search surface used by the action router.
type Engine interface {
	Search(ctx context.Context, kind enums.EventKind, declaration types.Declaration, exclude uuid.UUID) ([]Candidate, error)
}
