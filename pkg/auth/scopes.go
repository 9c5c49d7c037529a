package auth

import "github.com/angelmondragon/civreg-backend/pkg/enums"

// Scope is a permission string granted by the gateway.
type Scope string

const (
	ScopeRecordDeclare  Scope = "record.declare"
	ScopeRecordValidate Scope = "record.validate"
	ScopeRecordRegister Scope = "record.register"
	ScopeRecordCertify  Scope = "record.certify"
	ScopeRecordCorrect  Scope = "record.correct"
	ScopeRecordReview   Scope = "record.review"
	ScopeRecordAssign   Scope = "record.assign"

	// ScopeRecordUnassignOthers lets an actor release an assignment held by
	// someone else, unless the assignee also holds this scope.
	ScopeRecordUnassignOthers Scope = "record.unassign-others"
)

// scopesByAction is the static action-to-allowed-scopes table applied before
// any business logic runs.
var scopesByAction = map[enums.ActionType][]Scope{
	enums.ActionDeclare:           {ScopeRecordDeclare, ScopeRecordValidate, ScopeRecordRegister},
	enums.ActionValidate:          {ScopeRecordValidate, ScopeRecordRegister},
	enums.ActionRegister:          {ScopeRecordRegister},
	enums.ActionReject:            {ScopeRecordValidate, ScopeRecordRegister},
	enums.ActionArchive:           {ScopeRecordValidate, ScopeRecordRegister},
	enums.ActionRequestCorrection: {ScopeRecordCorrect, ScopeRecordRegister},
	enums.ActionApproveCorrection: {ScopeRecordRegister},
	enums.ActionIssue:             {ScopeRecordCertify},
	enums.ActionMarkNotDuplicate:  {ScopeRecordReview, ScopeRecordRegister},
	enums.ActionAssign:            {ScopeRecordAssign, ScopeRecordValidate, ScopeRecordRegister},
	enums.ActionUnassign:          {ScopeRecordAssign, ScopeRecordValidate, ScopeRecordRegister},
}

// AllowedScopes returns the scopes permitted to submit the given action type.
// ActionDetectDuplicate is system-generated and has no caller scopes.
func AllowedScopes(action enums.ActionType) []Scope {
	return scopesByAction[action]
}

// Authorized reports whether any of the granted scopes permits the action.
func Authorized(claims *AccessTokenClaims, action enums.ActionType) bool {
	if claims == nil {
		return false
	}
	for _, scope := range scopesByAction[action] {
		if claims.HasScope(scope) {
			return true
		}
	}
	return false
}
