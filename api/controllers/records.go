package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/api/middleware"
	"github.com/angelmondragon/civreg-backend/api/responses"
	"github.com/angelmondragon/civreg-backend/api/validators"
	eventsvc "github.com/angelmondragon/civreg-backend/internal/events"
	"github.com/angelmondragon/civreg-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/civreg-backend/pkg/errors"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/pagination"
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

type declareRequest struct {
	Kind          string            `json:"kind" validate:"required,oneof=birth death marriage"`
	TransactionID string            `json:"transactionId" validate:"required"`
	Declaration   types.Declaration `json:"declaration" validate:"required"`
	Annotation    *string           `json:"annotation,omitempty"`
}

type actionRequest struct {
	TransactionID string            `json:"transactionId" validate:"required"`
	Declaration   types.Declaration `json:"declaration,omitempty"`
	Annotation    *string           `json:"annotation,omitempty"`
	AssigneeID    *string           `json:"assigneeId,omitempty"`
	// OriginalActionID is set by confirmation callbacks resolving a
	// previously requested action.
	OriginalActionID *string `json:"originalActionId,omitempty"`
}

// DeclareRecord creates a new registration record from its first declaration.
func DeclareRecord(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload declareRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseEventKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event kind"))
			return
		}

		result, err := svc.ProcessAction(r.Context(), eventsvc.ActionInput{
			Kind:          kind,
			Type:          enums.ActionDeclare,
			TransactionID: payload.TransactionID,
			Declaration:   payload.Declaration,
			Annotation:    payload.Annotation,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SubmitAction submits one action against an existing record. The action
// type comes from the path, so each action gets a distinct audit trail in
// access logs.
func SubmitAction(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		actionType, err := enums.ParseActionType(chi.URLParam(r, "actionType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action type"))
			return
		}

		var payload actionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := eventsvc.ActionInput{
			EventID:       recordID,
			Type:          actionType,
			TransactionID: payload.TransactionID,
			Declaration:   payload.Declaration,
			Annotation:    payload.Annotation,
			Actor:         actor,
		}
		if payload.AssigneeID != nil {
			assignee, err := uuid.Parse(*payload.AssigneeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignee id"))
				return
			}
			input.AssigneeID = &assignee
		}
		if payload.OriginalActionID != nil {
			original, err := uuid.Parse(*payload.OriginalActionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid original action id"))
				return
			}
			input.OriginalActionID = &original
		}

		result, err := svc.ProcessAction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetRecord returns one record with its projected state.
func GetRecord(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		query := r.URL.Query()
		view, err := svc.Get(r.Context(), recordID, eventsvc.GetOptions{
			IncludeDrafts:  query.Get("drafts") == "true",
			IncludeHistory: query.Get("history") == "true",
			Author:         actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// ListRecords returns a cursor page of records.
func ListRecords(svc eventsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := eventsvc.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseEventKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event kind"))
				return
			}
			filters.Kind = &kind
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEventStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func actorFromRequest(r *http.Request) (eventsvc.Actor, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return eventsvc.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return eventsvc.Actor{
		UserID:   claims.UserID,
		Role:     claims.Role,
		OfficeID: claims.OfficeID,
		Scopes:   claims.Scopes,
	}, nil
}
