package conversation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/orchestrator"
)

// EndSentinel is the exact line that ends the conversation.
const EndSentinel = "END"

// Texts shown to the user.
const (
	OpeningPrompt = "Please tell me what would you like to email your ex (lover/boss/friend/anyone, really):"
	InputPrompt   = "Your response: "
	ReplyPrefix   = "Agent response: "
)

// Handler processes one user turn.
type Handler interface {
	HandleTurn(ctx context.Context, key core.SessionKey, text string) (orchestrator.Reply, error)
}

// StopReason says why a conversation ended.
type StopReason string

// Stop reasons.
const (
	StopEnd       StopReason = "end"
	StopDone      StopReason = "done"
	StopMaxTurns  StopReason = "max_turns"
	StopEOF       StopReason = "eof"
	StopCancelled StopReason = "cancelled"
)

// Summary describes a finished conversation.
type Summary struct {
	Turns  int
	Reason StopReason
	Phase  orchestrator.Phase
}

// Options configures a Driver.
type Options struct {
	// MaxTurns ends the conversation after this many handled turns.
	MaxTurns int
	In       io.Reader
	Out      io.Writer
	Renderer Renderer
	Logger   logging.Logger
}

// Driver runs one conversation for a session.
type Driver struct {
	handler Handler
	key     core.SessionKey
	opts    Options
}

// NewDriver creates a driver for the session key. Defaults: 16 turns,
// stdin/stdout, plain rendering.
func NewDriver(handler Handler, key core.SessionKey, optFns ...func(o *Options)) *Driver {
	opts := Options{
		MaxTurns: 16,
		In:       os.Stdin,
		Out:      os.Stdout,
		Renderer: PlainRenderer{},
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Driver{handler: handler, key: key, opts: opts}
}

// Run converses until a stop condition. Turn errors are shown to the user
// and the conversation continues; only a read failure is returned.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	out, r := d.opts.Out, d.opts.Renderer
	reader := bufio.NewReader(d.opts.In)

	sum := Summary{Phase: orchestrator.PhaseGatheringInfo}

	fmt.Fprintln(out, r.Opening(OpeningPrompt))

	for {
		if sum.Turns >= d.opts.MaxTurns {
			sum.Reason = StopMaxTurns
			break
		}
		if ctx.Err() != nil {
			sum.Reason = StopCancelled
			break
		}

		fmt.Fprint(out, r.Input(InputPrompt))

		// Lines have no length limit; pasted letters can be long.
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				sum.Reason = StopEOF
				break
			}
			return sum, fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if line == EndSentinel {
			sum.Reason = StopEnd
			break
		}

		sum.Turns++

		d.opts.Logger.Info("conversation.turn", "session", d.key.String(), "turn", sum.Turns)

		reply, err := d.handler.HandleTurn(ctx, d.key, line)
		if reply.Phase != "" {
			sum.Phase = reply.Phase
		}

		if err != nil {
			if errors.Is(err, orchestrator.ErrSessionDone) {
				sum.Reason = StopDone
				break
			}
			d.opts.Logger.Warn("conversation.turn.error", "session", d.key.String(), "turn", sum.Turns, "error", err.Error())
			fmt.Fprintln(out, r.Failure(err))
			continue
		}

		fmt.Fprintln(out, r.Reply(ReplyPrefix, reply.Text))

		if reply.Done {
			sum.Reason = StopDone
			break
		}
	}

	d.opts.Logger.Info("conversation.end", "session", d.key.String(), "turns", sum.Turns, "reason", string(sum.Reason), "phase", string(sum.Phase))

	return sum, nil
}
