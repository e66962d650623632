package crew

// Agent-visible state slots.
const (
	SlotContentBrief  = "content_brief"
	SlotEmailDraft    = "email_draft"
	SlotFeedback      = "feedback"
	SlotSender        = "sender"
	SlotRecipient     = "recipient"
	SlotUserFeedback  = "user_feedback"
	SlotBriefFeedback = "brief_feedback"
	SlotSendResult    = "send_result"

	SlotRefineIterations = "refine_iterations"
	SlotRefineApproved   = "refine_approved"
)

// Agent names.
const (
	NameClarifier    = "clarifier"
	NameBriefDrafter = "content_brief_drafter"
	NameEmailDrafter = "email_drafter"
	NameEditor       = "email_editor"
	NameRefiner      = "email_refiner"
	NameRewriter     = "email_rewriter"
	NameDispatcher   = "email_dispatcher"
	NameRefineLoop   = "email_refinement_loop"
	NameReview       = "email_review"
)
