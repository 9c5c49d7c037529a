// Package projection folds an event's action sequence into its current
// state. The fold is pure: the same sequence always produces the same state,
// and nothing here touches storage.
package projection

import (
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// Project replays the persisted actions in append order. Drafts, when
// supplied, are folded afterwards as a speculative tail; they are never
// persisted and the result must be recomputed on every read.
func Project(actions []models.EventAction, drafts []models.EventDraft) CurrentState {
	state := CurrentState{
		Declaration: types.Declaration{},
		Status:      enums.EventStatusCreated,
	}

	ordered := make([]models.EventAction, len(actions))
	copy(ordered, actions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	resolved := resolvedOriginals(ordered)
	for _, action := range ordered {
		state = reduce(state, action, resolved)
	}

	for _, draft := range drafts {
		state.Declaration = mergeDeclaration(state.Declaration, draft.Data)
	}

	return state
}

// resolvedOriginals collects the ids of Requested actions that a later
// follow-up row references. Those rows are no longer pending; the follow-up
// itself carries the outcome.
func resolvedOriginals(actions []models.EventAction) map[uuid.UUID]bool {
	var resolved map[uuid.UUID]bool
	for _, action := range actions {
		if action.OriginalActionID == nil {
			continue
		}
		if resolved == nil {
			resolved = make(map[uuid.UUID]bool)
		}
		resolved[*action.OriginalActionID] = true
	}
	return resolved
}

// reduce applies one action. Rejected actions skip the data merge but still
// advance audit status where meaningful: a rejected declare marks the whole
// record rejected. Requested actions are pending external confirmation and
// only raise the pending flag, until a follow-up referencing them lands.
func reduce(state CurrentState, action models.EventAction, resolved map[uuid.UUID]bool) CurrentState {
	switch action.Status {
	case enums.ActionStatusRequested:
		if !resolved[action.ID] {
			state.Flags.PendingRequested = true
		}
		return state
	case enums.ActionStatusRejected:
		if action.Type == enums.ActionDeclare {
			state.Status = enums.EventStatusRejected
		}
		return state
	}

	switch action.Type {
	case enums.ActionDeclare:
		state.Declaration = mergeDeclaration(state.Declaration, action.Data)
		state.Status = enums.EventStatusDeclared

	case enums.ActionValidate:
		state.Declaration = mergeDeclaration(state.Declaration, action.Data)
		state.Status = enums.EventStatusValidated

	case enums.ActionRegister:
		state.Declaration = mergeDeclaration(state.Declaration, action.Data)
		state.Status = enums.EventStatusRegistered

	case enums.ActionRequestCorrection:
		state.Status = enums.EventStatusCorrectionRequested

	case enums.ActionApproveCorrection:
		state.Declaration = mergeDeclaration(state.Declaration, action.Data)
		state.Status = enums.EventStatusRegistered

	case enums.ActionIssue:
		state.Status = enums.EventStatusIssued

	case enums.ActionReject:
		state.Status = enums.EventStatusRejected

	case enums.ActionArchive:
		state.Status = enums.EventStatusArchived

	case enums.ActionDetectDuplicate:
		state.Flags.DuplicateDetected = true

	case enums.ActionMarkNotDuplicate:
		state.Flags.DuplicateDetected = false
		state.Flags.NotDuplicate = true

	case enums.ActionAssign, enums.ActionUnassign:
		// Assignment markers live on task entries; they carry no
		// declaration data and do not move the state machine.
	}

	return state
}
