package invitations

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind is the closed taxonomy of invitation workflow failures. Every error
// that leaves this package carries exactly one of these.
type Kind string

// Classification kinds, in match priority order.
const (
	KindUserNotRegistered  Kind = "USER_NOT_REGISTERED"
	KindUserAlreadyInvited Kind = "USER_ALREADY_INVITED"
	KindUserAlreadyMember  Kind = "USER_ALREADY_MEMBER"
	KindPermissionDenied   Kind = "PERMISSION_DENIED"
	KindVerificationFailed Kind = "VERIFICATION_FAILED"
	KindDatabaseError      Kind = "DATABASE_ERROR"
	KindValidationError    Kind = "VALIDATION_ERROR"
	KindSystemError        Kind = "SYSTEM_ERROR"
)

// Sentinel errors produced at the service boundary. Classification is a
// structural errors.Is match on these, not message sniffing.
var (
	ErrUserNotRegistered  = errors.New("no account is registered for that email")
	ErrUserAlreadyInvited = errors.New("a pending invitation already exists for that email")
	ErrUserAlreadyMember  = errors.New("that account already belongs to a family")
	ErrPermissionDenied   = errors.New("not allowed to perform this action")
	ErrVerificationFailed = errors.New("invitation is not valid or could not be verified")
	ErrValidation         = errors.New("invalid request")
)

// ClassifiedError is the single enriched error every operation returns. The
// UI relies on CanRetry to enable or disable its retry affordance and shows
// UserMessage and SuggestedAction verbatim.
type ClassifiedError struct {
	Kind            Kind
	UserMessage     string
	CanRetry        bool
	SuggestedAction string
	Err             error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.UserMessage
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

type kindMeta struct {
	userMessage     string
	canRetry        bool
	suggestedAction string
}

var kindDetails = map[Kind]kindMeta{
	KindUserNotRegistered: {
		userMessage:     "No account was found for that email address.",
		canRetry:        false,
		suggestedAction: "Ask them to create an account first, then send the invitation again.",
	},
	KindUserAlreadyInvited: {
		userMessage:     "A pending invitation already exists for that email address.",
		canRetry:        false,
		suggestedAction: "Cancel the existing invitation if you want to send a new one.",
	},
	KindUserAlreadyMember: {
		userMessage:     "That account already belongs to a family.",
		canRetry:        false,
		suggestedAction: "They need to leave their current family before joining yours.",
	},
	KindPermissionDenied: {
		userMessage:     "You don't have permission to do that.",
		canRetry:        false,
		suggestedAction: "Ask a family admin or the family owner to do this for you.",
	},
	KindVerificationFailed: {
		userMessage:     "This invitation is no longer valid.",
		canRetry:        true,
		suggestedAction: "Refresh your invitations or ask for a new invitation to be sent.",
	},
	KindDatabaseError: {
		userMessage:     "We couldn't reach the server. Nothing was changed.",
		canRetry:        true,
		suggestedAction: "Check your connection and try again in a moment.",
	},
	KindValidationError: {
		userMessage:     "Some of the information provided isn't valid.",
		canRetry:        true,
		suggestedAction: "Correct the highlighted fields and try again.",
	},
	KindSystemError: {
		userMessage:     "Something went wrong on our side.",
		canRetry:        true,
		suggestedAction: "Try again, and contact support if the problem keeps happening.",
	},
}

// databaseErrorMarkers is the last-resort substring tier for backend errors
// that arrive untyped. Structural checks run first; this only catches raw
// driver/network strings.
var databaseErrorMarkers = []string{
	"connection",
	"timeout",
	"timed out",
	"no reachable servers",
	"server selection",
	"socket",
	"topology is closed",
}

// Classify maps any error from the invitation workflow onto the closed
// taxonomy, first match wins in kind priority order. Already-classified
// errors pass through unchanged. Unmatched errors become SYSTEM_ERROR with
// the raw message preserved, never silently swallowed.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	switch {
	case errors.Is(err, ErrUserNotRegistered):
		return newClassified(KindUserNotRegistered, err)
	case errors.Is(err, ErrUserAlreadyInvited) || mongo.IsDuplicateKeyError(err):
		// The partial unique index on (familyId, invitedEmail, pending) turns
		// a duplicate-send race into a duplicate-key error at insert time.
		return newClassified(KindUserAlreadyInvited, err)
	case errors.Is(err, ErrUserAlreadyMember):
		return newClassified(KindUserAlreadyMember, err)
	case errors.Is(err, ErrPermissionDenied):
		return newClassified(KindPermissionDenied, err)
	case errors.Is(err, ErrVerificationFailed):
		return newClassified(KindVerificationFailed, err)
	case errors.Is(err, context.DeadlineExceeded) || mongo.IsNetworkError(err) || mongo.IsTimeout(err):
		return newClassified(KindDatabaseError, err)
	case errors.Is(err, ErrValidation):
		return newClassified(KindValidationError, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range databaseErrorMarkers {
		if strings.Contains(msg, marker) {
			return newClassified(KindDatabaseError, err)
		}
	}

	fallback := newClassified(KindSystemError, err)
	fallback.UserMessage = "Something went wrong on our side: " + err.Error()
	return fallback
}

func newClassified(kind Kind, err error) *ClassifiedError {
	meta := kindDetails[kind]
	return &ClassifiedError{
		Kind:            kind,
		UserMessage:     meta.userMessage,
		CanRetry:        meta.canRetry,
		SuggestedAction: meta.suggestedAction,
		Err:             err,
	}
}
