package projection

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/db/models"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

func accepted(seq int64, actionType enums.ActionType, data types.Declaration) models.EventAction {
	return models.EventAction{
		Seq:    seq,
		Type:   actionType,
		Status: enums.ActionStatusAccepted,
		Data:   data,
	}
}

func TestProjectReplayIsDeterministic(t *testing.T) {
	actions := []models.EventAction{
		accepted(1, enums.ActionDeclare, types.Declaration{
			"firstNames": "Jane",
			"dateOfBirth": "2020-01-01",
			"names": []any{
				map[string]any{"use": "official", "firstNames": "Jane"},
			},
		}),
		accepted(2, enums.ActionValidate, types.Declaration{
			"names": []any{
				map[string]any{"use": "official", "familyName": "Doe"},
			},
		}),
		accepted(3, enums.ActionRegister, nil),
	}

	first := Project(actions, nil)
	second := Project(actions, nil)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("replay not deterministic:\nfirst:  %#v\nsecond: %#v", first, second)
	}
	if first.Status != enums.EventStatusRegistered {
		t.Fatalf("expected registered, got %s", first.Status)
	}
}

func TestProjectIgnoresInputOrder(t *testing.T) {
	ordered := []models.EventAction{
		accepted(1, enums.ActionDeclare, types.Declaration{"firstNames": "Jane"}),
		accepted(2, enums.ActionValidate, nil),
	}
	shuffled := []models.EventAction{ordered[1], ordered[0]}

	if got, want := Project(shuffled, nil), Project(ordered, nil); !reflect.DeepEqual(got, want) {
		t.Fatalf("projection depends on slice order: got %#v want %#v", got, want)
	}
}

func TestVariantUpsertMergesByDiscriminator(t *testing.T) {
	actions := []models.EventAction{
		accepted(1, enums.ActionDeclare, types.Declaration{
			"names": []any{
				map[string]any{"use": "official", "firstNames": "Jane"},
			},
		}),
		accepted(2, enums.ActionValidate, types.Declaration{
			"names": []any{
				map[string]any{"use": "official", "familyName": "Doe"},
				map[string]any{"use": "maiden", "familyName": "Roe"},
			},
		}),
	}

	state := Project(actions, nil)
	names, ok := state.Declaration["names"].([]any)
	if !ok {
		t.Fatalf("names not a variant list: %#v", state.Declaration["names"])
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 name variants, got %d", len(names))
	}

	official := names[0].(map[string]any)
	if official["use"] != "official" || official["firstNames"] != "Jane" || official["familyName"] != "Doe" {
		t.Fatalf("official variant not merged: %#v", official)
	}
	maiden := names[1].(map[string]any)
	if maiden["use"] != "maiden" || maiden["familyName"] != "Roe" {
		t.Fatalf("maiden variant not appended: %#v", maiden)
	}
}

func TestRejectedDeclareMarksEventRejected(t *testing.T) {
	actions := []models.EventAction{
		{
			Seq:    1,
			Type:   enums.ActionDeclare,
			Status: enums.ActionStatusRejected,
			Data:   types.Declaration{"firstNames": "Jane"},
		},
	}

	state := Project(actions, nil)
	if state.Status != enums.EventStatusRejected {
		t.Fatalf("expected rejected, got %s", state.Status)
	}
	if _, merged := state.Declaration["firstNames"]; merged {
		t.Fatalf("rejected action data must not merge: %#v", state.Declaration)
	}
}

func TestDuplicateFlagLifecycle(t *testing.T) {
	actions := []models.EventAction{
		accepted(1, enums.ActionDeclare, types.Declaration{"firstNames": "Jane"}),
		accepted(2, enums.ActionDetectDuplicate, nil),
	}

	state := Project(actions, nil)
	if !state.Flags.DuplicateDetected {
		t.Fatalf("expected duplicate flag raised")
	}
	if err := CheckTransition(state, enums.ActionValidate); pkgerrors.As(err) == nil ||
		pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict while flagged, got %v", err)
	}

	actions = append(actions, accepted(3, enums.ActionMarkNotDuplicate, nil))
	state = Project(actions, nil)
	if state.Flags.DuplicateDetected {
		t.Fatalf("expected duplicate flag cleared")
	}
	if !state.Flags.NotDuplicate {
		t.Fatalf("expected not-duplicate resolution remembered")
	}
	if err := CheckTransition(state, enums.ActionValidate); err != nil {
		t.Fatalf("expected validate to be legal after resolution: %v", err)
	}
}

func TestRequestedActionPendingUntilFollowUp(t *testing.T) {
	pendingID := uuid.New()
	base := []models.EventAction{
		accepted(1, enums.ActionDeclare, types.Declaration{"firstNames": "Jane"}),
		accepted(2, enums.ActionValidate, nil),
		{
			ID:     pendingID,
			Seq:    3,
			Type:   enums.ActionRegister,
			Status: enums.ActionStatusRequested,
		},
	}

	state := Project(base, nil)
	if !state.Flags.PendingRequested {
		t.Fatalf("expected pending flag while confirmation is outstanding")
	}
	if state.Status != enums.EventStatusValidated {
		t.Fatalf("requested action must not advance status, got %s", state.Status)
	}

	followUp := accepted(4, enums.ActionRegister, nil)
	followUp.ID = uuid.New()
	followUp.OriginalActionID = &pendingID
	state = Project(append(base, followUp), nil)
	if state.Flags.PendingRequested {
		t.Fatalf("expected pending flag cleared by the follow-up")
	}
	if state.Status != enums.EventStatusRegistered {
		t.Fatalf("expected registered after confirmation, got %s", state.Status)
	}
}

func TestDraftsFoldAsSpeculativeTail(t *testing.T) {
	actions := []models.EventAction{
		accepted(1, enums.ActionDeclare, types.Declaration{"firstNames": "Jane"}),
	}
	drafts := []models.EventDraft{
		{ActionType: enums.ActionValidate, Data: types.Declaration{"familyName": "Doe"}},
	}

	state := Project(actions, drafts)
	if state.Declaration["familyName"] != "Doe" {
		t.Fatalf("draft data not folded: %#v", state.Declaration)
	}
	if state.Status != enums.EventStatusDeclared {
		t.Fatalf("drafts must not advance status, got %s", state.Status)
	}

	clean := Project(actions, nil)
	if _, ok := clean.Declaration["familyName"]; ok {
		t.Fatalf("draft leaked into persisted projection")
	}
}

func TestCheckTransitionTable(t *testing.T) {
	cases := []struct {
		name   string
		status enums.EventStatus
		action enums.ActionType
		legal  bool
	}{
		{"declare from created", enums.EventStatusCreated, enums.ActionDeclare, true},
		{"declare twice", enums.EventStatusDeclared, enums.ActionDeclare, false},
		{"validate from declared", enums.EventStatusDeclared, enums.ActionValidate, true},
		{"register from declared", enums.EventStatusDeclared, enums.ActionRegister, false},
		{"issue from registered", enums.EventStatusRegistered, enums.ActionIssue, true},
		{"correction from registered", enums.EventStatusRegistered, enums.ActionRequestCorrection, true},
		{"approve from correction", enums.EventStatusCorrectionRequested, enums.ActionApproveCorrection, true},
		{"reject pre-registration", enums.EventStatusValidated, enums.ActionReject, true},
		{"reject after registration", enums.EventStatusRegistered, enums.ActionReject, false},
		{"archive from declared", enums.EventStatusDeclared, enums.ActionArchive, true},
		{"assign anytime", enums.EventStatusDeclared, enums.ActionAssign, true},
		{"nothing after issue", enums.EventStatusIssued, enums.ActionAssign, false},
		{"nothing after archive", enums.EventStatusArchived, enums.ActionValidate, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(CurrentState{Status: tc.status}, tc.action)
			if tc.legal && err != nil {
				t.Fatalf("expected legal, got %v", err)
			}
			if !tc.legal && err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestMarkNotDuplicateRequiresFlag(t *testing.T) {
	state := CurrentState{Status: enums.EventStatusDeclared}
	if err := CheckTransition(state, enums.ActionMarkNotDuplicate); err == nil {
		t.Fatalf("expected rejection when no duplicate flag is raised")
	}
}
