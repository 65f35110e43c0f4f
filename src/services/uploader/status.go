// Package uploader drives document uploads and the bounded status polling
// that follows them until the backend reports a terminal state.
package uploader

import "sensechat/src/models"

// Phase is the client-side lifecycle position of one upload. It only moves
// forward: a backend report can never take an entry back to an earlier
// phase, and terminal phases absorb everything.
type Phase int

const (
	PhaseUploading Phase = iota
	PhaseProcessing
	PhaseReady
	PhaseError
	PhaseTimedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseUploading:
		return "uploading"
	case PhaseProcessing:
		return "processing"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	case PhaseTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase absorbs all further reports.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseError || p == PhaseTimedOut
}

// Failed reports whether the phase ends the upload without a usable
// document. Timeouts are shown to the user as errors.
func (p Phase) Failed() bool {
	return p == PhaseError || p == PhaseTimedOut
}

// Transition applies one backend status report to the current phase.
// Unknown or regressive reports keep the current phase, so the sequence a
// user observes is always a subsequence of uploading, processing, then
// ready or error.
func Transition(current Phase, reported string) Phase {
	if current.Terminal() {
		return current
	}
	switch reported {
	case models.StatusUploading:
		return current
	case models.StatusProcessing:
		if current < PhaseProcessing {
			return PhaseProcessing
		}
		return current
	case models.StatusReady:
		return PhaseReady
	case models.StatusError:
		return PhaseError
	default:
		return current
	}
}
