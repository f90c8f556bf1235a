package domain

import "strings"

// State is the user-facing lifecycle state of a torrent. Exactly one state is
// active at a time; transitions are driven by Classify over fresh engine
// snapshots, never set arbitrarily.
type State string

const (
	StateError       State = "Error"
	StateChecking    State = "Checking"
	StatePaused      State = "Paused"
	StateDownloading State = "Downloading"
	StateSeeding     State = "Seeding"
	StateAllocating  State = "Allocating"
	StateQueued      State = "Queued"
)

// Valid reports whether s is one of the recognized lifecycle states.
func (s State) Valid() bool {
	switch s {
	case StateError, StateChecking, StatePaused, StateDownloading,
		StateSeeding, StateAllocating, StateQueued:
		return true
	}
	return false
}

// RawState is the engine's own progress state for a torrent, before any
// pause, queue or error interpretation is applied.
type RawState int

const (
	RawQueued RawState = iota
	RawChecking
	RawDownloadingMetadata
	RawDownloading
	RawFinished
	RawSeeding
	RawAllocating
	RawCheckingResumeData
)

// provisional maps a raw engine state to a lifecycle label before the
// pause/queue/error rules run.
func (r RawState) provisional() State {
	switch r {
	case RawQueued, RawChecking, RawCheckingResumeData:
		return StateChecking
	case RawDownloading, RawDownloadingMetadata:
		return StateDownloading
	case RawFinished, RawSeeding:
		return StateSeeding
	case RawAllocating:
		return StateAllocating
	}
	return StateChecking
}

// CheckingLike reports whether the raw state belongs to the queued/checking
// family, which resolves to Paused or Checking before any queue logic applies.
func (r RawState) CheckingLike() bool {
	return r == RawQueued || r == RawChecking || r == RawCheckingResumeData
}

// ErrorPrefix marks a status message as describing an error condition. A
// message carrying this prefix keeps the torrent in the Error state until the
// engine reports success again.
const ErrorPrefix = "Error:"

// StatusOK is the status message of a healthy torrent.
const StatusOK = "OK"

// ClassifierInput carries everything Classify needs. SessionPaused is passed
// explicitly rather than read from ambient state so the function stays pure.
type ClassifierInput struct {
	RawState      RawState
	Paused        bool
	AutoManaged   bool
	SessionPaused bool
	EngineError   string
	StatusMessage string
}

// Classification is the outcome of one classifier run. Message is the
// replacement status message; empty means keep the current one.
// DisableAutoManaged instructs the caller to turn the engine's auto-managed
// flag off so an errored, paused torrent is not silently resumed.
type Classification struct {
	State              State
	Message            string
	DisableAutoManaged bool
}

// Classify maps one engine snapshot to a lifecycle state. Error detection
// always takes precedence; the remaining rules run in strict order.
func Classify(in ClassifierInput) Classification {
	if in.EngineError != "" {
		return Classification{
			State:              StateError,
			Message:            in.EngineError,
			DisableAutoManaged: in.Paused,
		}
	}
	if strings.HasPrefix(in.StatusMessage, ErrorPrefix) {
		return Classification{
			State:              StateError,
			DisableAutoManaged: in.Paused,
		}
	}

	out := Classification{Message: StatusOK}

	if in.RawState.CheckingLike() {
		if in.Paused {
			out.State = StatePaused
		} else {
			out.State = StateChecking
		}
		return out
	}

	out.State = in.RawState.provisional()

	if !in.SessionPaused && in.Paused && in.AutoManaged {
		out.State = StateQueued
	} else if in.SessionPaused || (in.Paused && !in.AutoManaged) {
		out.State = StatePaused
	}
	return out
}
