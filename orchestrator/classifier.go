package orchestrator

import (
	"context"
	"slices"
	"strings"
	"unicode"
)

// Gate names the artifact a review decision is about.
type Gate string

// Review gates.
const (
	GateBrief Gate = "content brief"
	GateEmail Gate = "email draft"
)

// Decision is the outcome of a review gate.
type Decision string

// Decisions.
const (
	DecisionApprove Decision = "approve"
	DecisionRevise  Decision = "revise"
)

// Assessment reports which parts of the brief the user has covered.
type Assessment struct {
	Purpose  bool `json:"purpose"`
	Audience bool `json:"audience"`
	Tone     bool `json:"tone"`
}

// Complete reports whether purpose, audience and tone are all known.
func (a Assessment) Complete() bool { return a.Purpose && a.Audience && a.Tone }

// Classifier interprets free user text for the state machine.
type Classifier interface {
	// Assess checks everything the user said so far.
	Assess(ctx context.Context, utterances []string) (Assessment, error)
	// Decide reads a reply to a review gate.
	Decide(ctx context.Context, gate Gate, text string) (Decision, error)
}

// RuleClassifier classifies with keyword cues. Approval requires a short
// affirmation: at least one affirmative cue, every other word a filler, no
// question mark.
type RuleClassifier struct{}

var _ Classifier = RuleClassifier{}

var (
	purposeCues = []string{
		"tell", "telling", "say", "thank", "apolog", "sorry", "ask", "invite", "goodbye", "farewell",
		"explain", "congratulat", "remind", "confess", "forgive", "closure", "update",
		"let them know", "let him know", "let her know", "want to", "wish",
	}
	audienceCues = []string{
		"ex", "boss", "friend", "mom", "mother", "dad", "father", "partner", "colleague",
		"coworker", "manager", "team", "sister", "brother", "lover", "girlfriend",
		"boyfriend", "wife", "husband", "landlord", "teacher", "client", "neighbor",
		"neighbour", "company", "roommate",
	}
	toneCues = []string{
		"tone", "polite", "friendly", "formal", "casual", "warm", "angry", "sarcas",
		"bittersweet", "kind", "professional", "funny", "serious", "apologetic",
		"grateful", "firm", "gentle", "happy", "sad", "amicable", "heartfelt",
		"petty", "sincere", "respectful", "playful", "honest", "nostalgic",
	}

	affirmativeCues = []string{
		"yes", "yep", "yeah", "yup", "ok", "okay", "sure", "approve", "approved",
		"lgtm", "perfect", "great", "good", "fine", "love", "correct",
		"looks good", "go ahead", "sounds good", "ship it",
	}
	// fillerWords may surround an affirmative without changing its meaning.
	fillerWords = []string{
		"a", "all", "alright", "and", "absolutely", "ahead", "away", "brief", "done",
		"draft", "email", "go", "is", "it", "its", "just", "lets", "looks", "me",
		"now", "please", "really", "send", "so", "sounds", "thank", "thanks",
		"that", "the", "this", "totally", "very", "you",
	}
	negationCues = []string{
		"no", "not", "nope", "never", "nah", "wait", "stop", "hold",
		"dont", "doesnt", "isnt", "wont", "cant", "arent", "didnt", "aint",
		"shouldnt", "wouldnt", "couldnt", "havent", "hasnt",
	}
	changeCues   = []string{
		"change", "but", "however", "instead", "add", "remove", "more", "less", "rewrite",
		"revise", "edit", "shorter", "longer", "make", "fix", "mention", "should",
		"could", "tweak", "too", "drop", "replace", "rather",
	}
)

// Assess implements Classifier.
func (RuleClassifier) Assess(_ context.Context, utterances []string) (Assessment, error) {
	text := normalize(strings.Join(utterances, " "))

	return Assessment{
		Purpose:  hasCue(text, purposeCues),
		Audience: hasCue(text, audienceCues),
		Tone:     hasCue(text, toneCues),
	}, nil
}

// Decide implements Classifier.
func (RuleClassifier) Decide(_ context.Context, _ Gate, text string) (Decision, error) {
	norm := normalize(text)
	if norm == "" {
		return DecisionRevise, nil
	}

	if strings.ContainsAny(text, "?？") || hasCue(norm, negationCues) || hasCue(norm, changeCues) {
		return DecisionRevise, nil
	}

	if isAffirmation(norm) {
		return DecisionApprove, nil
	}

	return DecisionRevise, nil
}

// isAffirmation reports whether norm holds an affirmative cue and nothing
// besides affirmatives and fillers. Affirmatives match whole words only, so
// "corrections" is not "correct".
func isAffirmation(norm string) bool {
	padded := " " + norm + " "
	found := false

	for _, cue := range affirmativeCues {
		if strings.Contains(cue, " ") && strings.Contains(padded, " "+cue+" ") {
			padded = strings.ReplaceAll(padded, " "+cue+" ", " ")
			found = true
		}
	}

	for _, w := range strings.Fields(padded) {
		switch {
		case slices.Contains(affirmativeCues, w):
			found = true
		case slices.Contains(fillerWords, w):
		default:
			return false
		}
	}

	return found
}

// normalize lowercases text and reduces it to single-space separated words.
// Apostrophes are dropped so "don't" becomes "dont".
func normalize(text string) string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	text = strings.ReplaceAll(text, "’", "")

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(fields, " ")
}

// hasCue matches cues against normalized text. Multi-word cues match as
// phrases, cues of five or more letters also match as word prefixes, shorter
// cues match whole words only.
func hasCue(norm string, cues []string) bool {
	padded := " " + norm + " "
	words := strings.Fields(norm)

	for _, cue := range cues {
		if strings.Contains(cue, " ") {
			if strings.Contains(padded, " "+cue+" ") {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == cue || (len(cue) >= 5 && strings.HasPrefix(w, cue)) {
				return true
			}
		}
	}

	return false
}
