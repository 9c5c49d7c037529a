package dedup

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

type gormProvider struct {
	db *gorm.DB
}

// NewProvider builds the search-read-model provider bound to the provided DB.
func NewProvider(db *gorm.DB) Provider {
	return &gormProvider{db: db}
}

// FindCandidates prefilters event_search rows of the same kind against the
// caller's rule set: exact fields by equality, fuzzy fields by shared prefix.
// Empty candidate values never participate, so an empty field cannot match a
// row that is also empty.
func (p *gormProvider) FindCandidates(ctx context.Context, kind enums.EventKind, rules []Rule, fields map[string]string, exclude uuid.UUID) ([]models.EventSearch, error) {
	query := p.db.WithContext(ctx).
		Model(&models.EventSearch{}).
		Where("kind = ?", kind)
	if exclude != uuid.Nil {
		query = query.Where("event_id <> ?", exclude)
	}

	var match *gorm.DB
	for _, rule := range rules {
		value := fields[rule.Field]
		if value == "" {
			continue
		}
		var cond *gorm.DB
		switch rule.Match {
		case MatchExact:
			cond = p.db.Where("lower("+rule.Field+") = lower(?)", value)
		case MatchFuzzy:
			cond = p.db.Where("lower("+rule.Field+") LIKE lower(?)", prefixPattern(value))
		default:
			continue
		}
		if match == nil {
			match = cond
		} else {
			match = match.Or(cond)
		}
	}
	if match == nil {
		return nil, nil
	}

	var rows []models.EventSearch
	if err := query.Where(match).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// prefixPattern widens fuzzy prefiltering to rows sharing the first two
// characters; the in-process scorer does the precise comparison.
func prefixPattern(value string) string {
	runes := []rune(value)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes) + "%"
}
