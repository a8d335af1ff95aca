package backend

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/influence-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrorKind is the tag of a backend Err variant.
type ErrorKind string

const (
	KindUnauthorized            ErrorKind = "Unauthorized"
	KindInsufficientPermissions ErrorKind = "InsufficientPermissions"
	KindRoleRequired            ErrorKind = "RoleRequired"
	KindAccountNotFound         ErrorKind = "AccountNotFound"
	KindAccountInactive         ErrorKind = "AccountInactive"
	KindNotFound                ErrorKind = "NotFound"
	KindInvalidInput            ErrorKind = "InvalidInput"
	KindInsufficientFunds       ErrorKind = "InsufficientFunds"
	KindOther                   ErrorKind = "Other"
)

// Error is a rejection returned by the backend. It is authoritative.
type Error struct {
	Method string
	Kind   ErrorKind
	// Reason is the variant payload; for RoleRequired it names the role.
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Method, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Method, e.Kind, e.Reason)
}

func (e *Error) VariantKind() string   { return string(e.Kind) }
func (e *Error) VariantReason() string { return e.Reason }

// RequiredRole parses the role carried by a RoleRequired variant.
func (e *Error) RequiredRole() (enums.Role, bool) {
	if e.Kind != KindRoleRequired {
		return "", false
	}
	role, err := enums.ParseRole(e.Reason)
	if err != nil {
		return "", false
	}
	return role, true
}

// APIError maps each variant to its own public code so callers can render them distinctly.
func (e *Error) APIError() *pkgerrors.Error {
	switch e.Kind {
	case KindUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, messageOr(e.Reason, "not authorized"))
	case KindInsufficientPermissions:
		return pkgerrors.New(pkgerrors.CodeInsufficientPermissions, messageOr(e.Reason, "insufficient permissions")).
			WithDetails(map[string]any{"reason": e.Reason})
	case KindRoleRequired:
		role := e.Reason
		label := role
		if parsed, ok := e.RequiredRole(); ok {
			role = parsed.String()
			label = parsed.Label()
		}
		return pkgerrors.New(pkgerrors.CodeRoleRequired, fmt.Sprintf("%s role required", label)).
			WithDetails(map[string]any{"required_role": role})
	case KindAccountNotFound:
		return pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found")
	case KindAccountInactive:
		return pkgerrors.New(pkgerrors.CodeAccountInactive, "account is inactive")
	case KindNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, messageOr(e.Reason, "resource not found"))
	case KindInvalidInput:
		return pkgerrors.New(pkgerrors.CodeValidation, messageOr(e.Reason, "invalid input")).
			WithDetails(map[string]any{"reason": e.Reason})
	case KindInsufficientFunds:
		return pkgerrors.New(pkgerrors.CodeStateConflict, messageOr(e.Reason, "insufficient funds")).
			WithDetails(map[string]any{"reason": e.Reason})
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, "backend rejected the request").
			WithDetails(map[string]any{"variant": string(e.Kind), "reason": e.Reason})
	}
}

func messageOr(reason, fallback string) string {
	if strings.TrimSpace(reason) == "" {
		return fallback
	}
	return reason
}

// decodeVariant reads an Err payload. Both {"Kind": payload} and the bare "Kind" form
// are accepted; payloads may be a string, null or an object with a reason/role field.
func decodeVariant(method string, payload gjson.Result) *Error {
	out := &Error{Method: method, Kind: KindOther}
	switch {
	case payload.Type == gjson.String:
		out.Kind = ErrorKind(payload.String())
	case payload.IsObject():
		payload.ForEach(func(key, value gjson.Result) bool {
			out.Kind = ErrorKind(key.String())
			out.Reason = variantReason(value)
			return false
		})
	default:
		out.Reason = payload.Raw
	}
	return out
}

func variantReason(value gjson.Result) string {
	switch {
	case value.Type == gjson.Null:
		return ""
	case value.Type == gjson.String:
		return value.String()
	case value.IsObject():
		for _, field := range []string{"reason", "role", "message"} {
			if v := value.Get(field); v.Exists() {
				return v.String()
			}
		}
		return value.Raw
	case value.IsArray():
		// tuple-style variants carry a single element
		if first := value.Get("0"); first.Exists() {
			return variantReason(first)
		}
		return ""
	default:
		return value.String()
	}
}
