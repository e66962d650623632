package crew

import "github.com/hupe1980/mailmesh/mail"

// ValidateBrief accepts text holding a content brief and returns its
// canonical rendering.
func ValidateBrief(text string) (string, error) {
	b, err := mail.ParseBrief(text)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// ValidateDraft accepts text holding an email draft and returns its canonical
// JSON.
func ValidateDraft(text string) (string, error) {
	d, err := mail.ParseDraft(text)
	if err != nil {
		return "", err
	}
	return d.JSON(), nil
}

// ValidateFeedback accepts the approval sentinel or any non-blank critique.
// The text is stored unchanged so the sentinel comparison stays exact.
func ValidateFeedback(text string) (string, error) {
	if err := mail.ValidateFeedback(text); err != nil {
		return "", err
	}
	return text, nil
}
