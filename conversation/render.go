package conversation

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/hupe1980/mailmesh/mail"
)

// Renderer formats the driver's output.
type Renderer interface {
	Opening(text string) string
	Input(prompt string) string
	Reply(prefix, text string) string
	Failure(err error) string
}

// FailureText is what the user sees for a failed turn.
func FailureText(err error) string { return "Something went wrong: " + err.Error() }

// PlainRenderer prints texts unchanged.
type PlainRenderer struct{}

func (PlainRenderer) Opening(text string) string       { return text }
func (PlainRenderer) Input(prompt string) string       { return prompt }
func (PlainRenderer) Reply(prefix, text string) string { return prefix + text }
func (PlainRenderer) Failure(err error) string         { return FailureText(err) }

// StyledRenderer colors labels and frames briefs and drafts in a panel.
type StyledRenderer struct {
	label   *color.Color
	input   *color.Color
	failure *color.Color
	panel   lipgloss.Style
}

// NewStyledRenderer creates a renderer for color terminals.
func NewStyledRenderer() *StyledRenderer {
	return &StyledRenderer{
		label:   color.New(color.FgCyan, color.Bold),
		input:   color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1),
	}
}

func (s *StyledRenderer) Opening(text string) string { return s.label.Sprint(text) }
func (s *StyledRenderer) Input(prompt string) string { return s.input.Sprint(prompt) }
func (s *StyledRenderer) Failure(err error) string   { return s.failure.Sprint(FailureText(err)) }

// Reply frames the part of text holding a brief or a draft.
func (s *StyledRenderer) Reply(prefix, text string) string {
	head, body, tail, ok := splitPresentation(text)
	if !ok {
		return s.label.Sprint(prefix) + text
	}

	var sb strings.Builder
	sb.WriteString(s.label.Sprint(prefix))
	sb.WriteString(head)
	sb.WriteString("\n")
	sb.WriteString(s.panel.Render(body))
	if tail != "" {
		sb.WriteString("\n")
		sb.WriteString(tail)
	}

	return sb.String()
}

// splitPresentation cuts a presented brief or draft out of a reply. The
// framed part runs from the brief header or "From:" line to the next blank
// line followed by a question.
func splitPresentation(text string) (head, body, tail string, ok bool) {
	start := strings.Index(text, mail.BriefHeader)
	if start < 0 {
		start = strings.Index(text, "\nFrom: ")
		if start < 0 {
			return "", "", "", false
		}
		start++
	}

	end := strings.LastIndex(text, "\n\n")
	if end <= start {
		end = len(text)
	}

	return strings.TrimSpace(text[:start]), strings.TrimSpace(text[start:end]), strings.TrimSpace(text[end:]), true
}
