package validation

import (
	"strings"

	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
)

var validMoves = map[string]struct{}{
	"left":  {},
	"right": {},
	"up":    {},
	"down":  {},
}

// SanitizeReplayProof checks a recorded replay before it is sent to the
// registry. Passing here does not mean the registry will accept it.
func SanitizeReplayProof(proof domain.DailyReplayProof) (domain.DailyReplayProof, error) {
	if proof.Version != constants.ReplayProofVersion {
		return domain.DailyReplayProof{}, invalidProof("unsupported version %d", proof.Version)
	}
	if proof.Difficulty < 1 || proof.Difficulty > 3 {
		return domain.DailyReplayProof{}, invalidProof("difficulty %d out of range", proof.Difficulty)
	}
	if proof.FinalTime < 0 || proof.FinalScore < 0 || proof.FinalLevel < 0 {
		return domain.DailyReplayProof{}, invalidProof("final outcome must be non-negative")
	}
	if proof.FinalTime > constants.MaxReplayFinalTime {
		return domain.DailyReplayProof{}, invalidProof("finalTime %d exceeds %d", proof.FinalTime, constants.MaxReplayFinalTime)
	}

	inputs := proof.Inputs
	if len(inputs) > constants.MaxReplayInputEvents {
		inputs = inputs[:constants.MaxReplayInputEvents]
	}

	sanitized := make([]domain.ReplayInputEvent, 0, len(inputs))
	var prev int64
	for i, event := range inputs {
		if event.Time < 0 || event.Time < prev {
			return domain.DailyReplayProof{}, domain.NewValidationError(domain.CodeNonMonotonicReplay,
				"input %d at time %d follows time %d", i, event.Time, prev)
		}
		prev = event.Time

		move := strings.ToLower(event.Move)
		if _, ok := validMoves[move]; !ok {
			return domain.DailyReplayProof{}, domain.NewValidationError(domain.CodeInvalidMoveToken,
				"input %d has move %q", i, event.Move)
		}
		sanitized = append(sanitized, domain.ReplayInputEvent{Time: event.Time, Move: move})
	}

	if n := len(sanitized); n > 0 && sanitized[n-1].Time > proof.FinalTime {
		return domain.DailyReplayProof{}, domain.NewValidationError(domain.CodeReplayExceedsFinalTime,
			"last input at %d is after finalTime %d", sanitized[n-1].Time, proof.FinalTime)
	}

	proof.Inputs = sanitized
	return proof, nil
}

func invalidProof(format string, args ...any) error {
	return domain.NewValidationError(domain.CodeInvalidReplayProof, format, args...)
}
