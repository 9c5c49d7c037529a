// Package assignment derives which actor currently holds a record for
// editing from the record's task entry markers, and enforces who may release
// that claim.
package assignment

import (
	"sort"
	"strings"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// CurrentAssignee computes the active claim from all task entries, current
// and historical.
//
// Entries are ordered by last-modified descending. The "last unassigned"
// boundary is the more recent of (a) the latest adjacent pair whose computed
// status differs, meaning a business-status change superseded any claim, and
// (b) the latest explicit unassigned marker. The latest assigned marker must
// be more recent than that boundary; otherwise the record is unassigned.
func CurrentAssignee(entries []models.TaskEntry) *Assignment {
	if len(entries) == 0 {
		return nil
	}

	ordered := make([]models.TaskEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LastModified.After(ordered[j].LastModified)
	})

	boundary := len(ordered)
	for i := 0; i < len(ordered)-1; i++ {
		if ordered[i].Status != ordered[i+1].Status {
			boundary = i
			break
		}
	}
	for i, entry := range ordered {
		if i >= boundary {
			break
		}
		if entry.Extension == enums.TaskExtensionUnassigned {
			boundary = i
			break
		}
	}

	for i, entry := range ordered {
		if i >= boundary {
			break
		}
		if entry.Extension != enums.TaskExtensionAssigned || entry.AssigneeID == nil {
			continue
		}
		return &Assignment{
			AssigneeID:     *entry.AssigneeID,
			AssignedBy:     entry.ActorID,
			AssigneeScopes: splitScopes(entry.AssigneeScopes),
			Status:         entry.Status,
			Since:          entry.LastModified,
		}
	}
	return nil
}

func splitScopes(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, " ")
	scopes := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			scopes = append(scopes, part)
		}
	}
	return scopes
}

func hasScope(scopes []string, want string) bool {
	for _, scope := range scopes {
		if scope == want {
			return true
		}
	}
	return false
}
