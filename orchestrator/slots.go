package orchestrator

import (
	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/crew"
)

// Control slots owned by the orchestrator.
const (
	SlotPhase          = "phase"
	SlotBriefRevisions = "brief_revisions"
	SlotTurns          = "turns"
	// SlotSendAttempted is set before the dispatcher runs; SENDING never
	// dispatches twice.
	SlotSendAttempted = "send_attempted"
)

// Slots is the typed view of a session's state.
type Slots struct {
	Phase          Phase
	BriefRevisions int
	Turns          int

	ContentBrief  string
	EmailDraft    string
	Feedback      string
	UserFeedback  string
	BriefFeedback string
	Sender        string
	Recipient     string
	SendResult    string

	RefineIterations int
	RefineApproved   bool
	SendAttempted    bool
}

// LoadSlots reads the slots from sess. A session without a phase is in
// GATHERING_INFO.
func LoadSlots(sess *core.Session) Slots {
	str := func(k string) string {
		v, _ := sess.GetState(k)
		s, _ := v.(string)
		return s
	}
	num := func(k string) int {
		v, _ := sess.GetState(k)
		return toInt(v)
	}

	s := Slots{
		Phase:            Phase(str(SlotPhase)),
		BriefRevisions:   num(SlotBriefRevisions),
		Turns:            num(SlotTurns),
		ContentBrief:     str(crew.SlotContentBrief),
		EmailDraft:       str(crew.SlotEmailDraft),
		Feedback:         str(crew.SlotFeedback),
		UserFeedback:     str(crew.SlotUserFeedback),
		BriefFeedback:    str(crew.SlotBriefFeedback),
		Sender:           str(crew.SlotSender),
		Recipient:        str(crew.SlotRecipient),
		SendResult:       str(crew.SlotSendResult),
		RefineIterations: num(crew.SlotRefineIterations),
	}

	if v, ok := sess.GetState(crew.SlotRefineApproved); ok {
		s.RefineApproved, _ = v.(bool)
	}

	if v, ok := sess.GetState(SlotSendAttempted); ok {
		s.SendAttempted, _ = v.(bool)
	}

	if s.Phase == "" {
		s.Phase = PhaseGatheringInfo
	}

	return s
}

// toInt accepts the numeric shapes state values take after a JSON round trip.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
