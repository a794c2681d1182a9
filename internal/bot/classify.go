package bot

import (
	"context"
	"errors"

	apperrors "autoapply-engine/internal/errors"
)

type OutcomeKind int

const (
	// KindItemError skips the posting and keeps going.
	KindItemError OutcomeKind = iota
	// KindFatal ends the session and needs the operator's attention.
	KindFatal
	// KindCancelled ends the session quietly.
	KindCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindCancelled:
		return "cancelled"
	default:
		return "item_error"
	}
}

// Outcome is what the apply loop does about a failed letter or submission.
type Outcome struct {
	Kind         OutcomeKind
	Message      string
	ChallengeURL string
}

// Classify maps a collaborator failure onto an Outcome. Cancellation of ctx
// wins over whatever the error says.
func Classify(ctx context.Context, err error) Outcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return Outcome{Kind: KindCancelled, Message: "cancelled"}
	}

	de, ok := apperrors.As(err)
	if !ok {
		return Outcome{Kind: KindItemError, Message: err.Error()}
	}

	switch de.Type {
	case apperrors.ErrTypeChallenge:
		return Outcome{Kind: KindFatal, Message: de.Message, ChallengeURL: apperrors.RefOf(err)}
	case apperrors.ErrTypeDuplicate,
		apperrors.ErrTypeUpstream,
		apperrors.ErrTypeNotFound,
		apperrors.ErrTypeInvalidInput,
		apperrors.ErrTypeUnauthorized,
		apperrors.ErrTypeConflict,
		apperrors.ErrTypeInternal,
		apperrors.ErrTypeUnavailable,
		apperrors.ErrTypeRateLimit,
		apperrors.ErrTypeQueryExpansion,
		apperrors.ErrTypeFetch:
		return Outcome{Kind: KindItemError, Message: de.Message}
	default:
		return Outcome{Kind: KindItemError, Message: de.Error()}
	}
}
