package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/mail"
)

// SendEmailToolName is the tool used by the dispatcher.
const SendEmailToolName = "send_email"

// SendFailureMessage prefixes every failed send status.
const SendFailureMessage = "Email failed to send. Ask user for valid email and/or check that email has appropriate permissions."

// SendEmailArgs are the send_email arguments.
type SendEmailArgs struct {
	Title     string `json:"title" description:"Subject line of the email" validate:"nonblank"`
	Body      string `json:"body" description:"Plain text body of the email" validate:"nonblank"`
	Sender    string `json:"sender" description:"Email address of the user sending the email" validate:"nonblank"`
	Recipient string `json:"recipient" description:"Email address the email is addressed to" validate:"nonblank"`
}

// SendSuccess formats the status for a delivered message.
func SendSuccess(id string) string { return "Email successfully sent with email ID " + id }

// SendFailure formats the status for a failed send.
func SendFailure(reason string) string { return fmt.Sprintf("%s (%s)", SendFailureMessage, reason) }

// NewSendEmailTool returns send_email backed by sender. Each send is bounded
// by timeout (0 disables it). Transport and authorization failures are
// reported in the returned status string, never as an error.
func NewSendEmailTool(sender mail.Sender, timeout time.Duration) *FunctionTool {
	return NewFunctionToolFromStruct(
		SendEmailToolName,
		"Creates and sends an email with the given title and body from sender to recipient. Returns the send status.",
		SendEmailArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			d := mail.Draft{
				Title:     args["title"].(string),
				Body:      args["body"].(string),
				Sender:    args["sender"].(string),
				Recipient: args["recipient"].(string),
			}

			ctx := tc.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			id, err := sender.Send(ctx, d)
			if err != nil {
				tc.LogError("mail.send.failure", "to", d.Recipient, "error", err)
				return SendFailure(err.Error()), nil
			}

			tc.LogInfo("mail.send.success", "to", d.Recipient, "id", id)

			return SendSuccess(id), nil
		},
	)
}
