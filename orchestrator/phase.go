package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned for a phase/signal pair outside the
	// transition table.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrSessionDone is returned for turns after the email was sent.
	ErrSessionDone = errors.New("session is done")
)

// Phase is the position of a session in the conversation.
type Phase string

// Phases in conversation order.
const (
	PhaseGatheringInfo     Phase = "GATHERING_INFO"
	PhaseBriefDrafting     Phase = "BRIEF_DRAFTING"
	PhaseBriefReview       Phase = "BRIEF_REVIEW"
	PhaseAddressCollection Phase = "ADDRESS_COLLECTION"
	PhaseEmailDrafting     Phase = "EMAIL_DRAFTING"
	PhaseRefineLoop        Phase = "EMAIL_EDIT_REFINE_LOOP"
	PhaseEmailReview       Phase = "EMAIL_REVIEW"
	PhaseSending           Phase = "SENDING"
	PhaseDone              Phase = "DONE"
)

// Signal is the outcome of one phase handler.
type Signal string

// Signals.
const (
	SignalNeedInfo          Signal = "need_info"
	SignalInfoComplete      Signal = "info_complete"
	SignalBriefReady        Signal = "brief_ready"
	SignalApprove           Signal = "approve"
	SignalRevise            Signal = "revise"
	SignalNeedAddresses     Signal = "need_addresses"
	SignalAddressesComplete Signal = "addresses_complete"
	SignalDraftReady        Signal = "draft_ready"
	SignalLoopDone          Signal = "loop_done"
	SignalSent              Signal = "sent"
)

var transitions = map[Phase]map[Signal]Phase{
	PhaseGatheringInfo: {
		SignalNeedInfo:     PhaseGatheringInfo,
		SignalInfoComplete: PhaseBriefDrafting,
	},
	PhaseBriefDrafting: {
		SignalBriefReady: PhaseBriefReview,
	},
	PhaseBriefReview: {
		SignalApprove: PhaseAddressCollection,
		SignalRevise:  PhaseBriefDrafting,
	},
	PhaseAddressCollection: {
		SignalNeedAddresses:     PhaseAddressCollection,
		SignalAddressesComplete: PhaseEmailDrafting,
	},
	PhaseEmailDrafting: {
		SignalDraftReady: PhaseRefineLoop,
	},
	PhaseRefineLoop: {
		SignalLoopDone: PhaseEmailReview,
	},
	PhaseEmailReview: {
		SignalApprove: PhaseSending,
		SignalRevise:  PhaseRefineLoop,
	},
	PhaseSending: {
		SignalSent: PhaseDone,
	},
	// Terminal.
	PhaseDone: {},
}

// Next returns the phase reached from from on sig.
func Next(from Phase, sig Signal) (Phase, error) {
	to, ok := transitions[from][sig]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, sig)
	}
	return to, nil
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}

func (p Phase) String() string { return string(p) }
