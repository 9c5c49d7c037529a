package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/api/responses"
	"github.com/angelmondragon/civreg-backend/api/validators"
	draftsvc "github.com/angelmondragon/civreg-backend/internal/drafts"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type putDraftRequest struct {
	Data types.Declaration `json:"data" validate:"required"`
}

// PutDraft creates or revises the caller's draft for one action type.
func PutDraft(svc draftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordID, actionType, err := draftScopeFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload putDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.Put(r.Context(), draftsvc.PutInput{
			EventID:    recordID,
			ActionType: actionType,
			Author:     actor.UserID,
			Data:       payload.Data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, draft)
	}
}

// ListDrafts returns the caller's active drafts for one record.
func ListDrafts(svc draftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		drafts, err := svc.List(r.Context(), recordID, actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drafts)
	}
}

// DiscardDraft deletes the caller's draft for one action type.
func DiscardDraft(svc draftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordID, actionType, err := draftScopeFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Discard(r.Context(), recordID, actionType, actor.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "discarded"})
	}
}

func draftScopeFromPath(r *http.Request) (uuid.UUID, enums.ActionType, error) {
	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id")
	}
	actionType, err := enums.ParseActionType(chi.URLParam(r, "actionType"))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action type")
	}
	return recordID, actionType, nil
}
