package services

import (
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// QuorumDecision is the result of evaluating challenges against squad size.
type QuorumDecision struct {
	ChallengeCount int64
	SquadSize      int64
	// Threshold is squadSize/2 kept exact, e.g. 3.5 for seven members.
	Threshold decimal.Decimal
	// Reached holds when challengeCount > squadSize/2. Ties do not count.
	Reached bool
	// Overturn holds when Reached and the outcome is not yet overturned.
	Overturn bool
}

// EvaluateQuorum applies the strict-majority overturn rule. It is pure: the
// caller supplies a fresh squad size on every evaluation and applies the flip.
func EvaluateQuorum(challengeCount, squadSize int64, overturned bool) QuorumDecision {
	threshold := decimal.NewFromInt(squadSize).Div(two)
	reached := decimal.NewFromInt(challengeCount).GreaterThan(threshold)
	return QuorumDecision{
		ChallengeCount: challengeCount,
		SquadSize:      squadSize,
		Threshold:      threshold,
		Reached:        reached,
		Overturn:       reached && !overturned,
	}
}
