package services

import (
	"errors"
	"fmt"
)

// Business errors. These are expected outcomes of a request and are returned
// to the caller as-is; anything else is an infrastructure failure.
var (
	// ErrInvalidTransition indicates a lifecycle step attempted out of order.
	ErrInvalidTransition = errors.New("invalid event status transition")

	// ErrTransitionNotDue indicates the next status exists but its time has not come.
	ErrTransitionNotDue = fmt.Errorf("%w: not yet due", ErrInvalidTransition)

	// ErrEventNotClosed indicates finalize was attempted before the event closed.
	ErrEventNotClosed = fmt.Errorf("%w: event is not closed", ErrInvalidTransition)

	// ErrNotJudge indicates the caller is not the event judge.
	ErrNotJudge = errors.New("only the event judge can finalize the outcome")

	// ErrAlreadyFinalized indicates another finalize call already won.
	ErrAlreadyFinalized = errors.New("event outcome already finalized")

	// ErrOutcomeNotFound indicates the event has no outcome yet.
	ErrOutcomeNotFound = errors.New("event outcome not found")

	// ErrAlreadyChallenged indicates the user already challenged this outcome.
	ErrAlreadyChallenged = errors.New("you have already challenged this outcome")

	// ErrChallengeWindowExpired indicates the dispute window has closed.
	ErrChallengeWindowExpired = errors.New("challenge window has expired")

	// ErrOutcomeAlreadyOverturned indicates the outcome was already overturned.
	ErrOutcomeAlreadyOverturned = errors.New("outcome has already been overturned")

	// ErrJudgeCannotChallenge indicates the judge tried to challenge their own outcome.
	ErrJudgeCannotChallenge = errors.New("the judge cannot challenge their own outcome")

	// ErrEventNotFound indicates the event does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrSquadNotFound indicates the squad does not exist.
	ErrSquadNotFound = errors.New("squad not found")

	// ErrNotSquadMember indicates the user is not on the squad roster.
	ErrNotSquadMember = errors.New("user is not a member of this squad")

	// ErrAlreadyMember indicates the user already joined the squad.
	ErrAlreadyMember = errors.New("user is already a member of this squad")

	// ErrJudgeAlreadyAssigned indicates a different judge was already assigned.
	ErrJudgeAlreadyAssigned = errors.New("event already has a judge")

	// ErrJudgeNotAssigned indicates the event has no judge to finalize it.
	ErrJudgeNotAssigned = errors.New("event has no judge assigned")

	// ErrNoEligibleJudge indicates nobody on the roster can be drawn as judge.
	ErrNoEligibleJudge = errors.New("no squad member is eligible to judge")

	// ErrInvalidEvent indicates malformed event scheduling input.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidSquad indicates malformed squad input.
	ErrInvalidSquad = errors.New("invalid squad")
)

var errorCodes = []struct {
	err  error
	code string
}{
	// Wrapped errors come before the error they wrap.
	{ErrEventNotClosed, "event_not_closed"},
	{ErrTransitionNotDue, "transition_not_due"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrNotJudge, "not_judge"},
	{ErrAlreadyFinalized, "already_finalized"},
	{ErrOutcomeNotFound, "outcome_not_found"},
	{ErrAlreadyChallenged, "already_challenged"},
	{ErrChallengeWindowExpired, "challenge_window_expired"},
	{ErrOutcomeAlreadyOverturned, "outcome_already_overturned"},
	{ErrJudgeCannotChallenge, "judge_cannot_challenge"},
	{ErrEventNotFound, "event_not_found"},
	{ErrSquadNotFound, "squad_not_found"},
	{ErrNotSquadMember, "not_squad_member"},
	{ErrAlreadyMember, "already_member"},
	{ErrJudgeAlreadyAssigned, "judge_already_assigned"},
	{ErrJudgeNotAssigned, "judge_not_assigned"},
	{ErrNoEligibleJudge, "no_eligible_judge"},
	{ErrInvalidEvent, "invalid_event"},
	{ErrInvalidSquad, "invalid_squad"},
}

// CodeInternal is the code of every error outside the business taxonomy.
const CodeInternal = "internal"

// ErrorCode returns the stable code of a business error, or CodeInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsBusinessError reports whether err belongs to the business taxonomy.
func IsBusinessError(err error) bool {
	return err != nil && ErrorCode(err) != CodeInternal
}
