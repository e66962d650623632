package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/util"
	"github.com/hupe1980/mailmesh/logging"
	"github.com/hupe1980/mailmesh/model"
	"github.com/hupe1980/mailmesh/prompt"
)

// ErrUnparsableClassification is returned when the model reply holds no
// usable JSON object.
var ErrUnparsableClassification = errors.New("unparsable classification")

const classifierAgent = "classifier"

// ModelClassifierOptions configures a ModelClassifier.
type ModelClassifierOptions struct {
	Prompts  *prompt.Catalogue
	Timeout  time.Duration
	Fallback Classifier
	Logger   logging.Logger
}

// ModelClassifier asks a model for a JSON classification. Provider errors
// and unparsable replies fall back to another classifier.
type ModelClassifier struct {
	llm  model.Model
	opts ModelClassifierOptions
}

var _ Classifier = (*ModelClassifier)(nil)

// NewModelClassifier creates a model backed classifier. Defaults: embedded
// prompts, 30s timeout, RuleClassifier fallback.
func NewModelClassifier(llm model.Model, optFns ...func(o *ModelClassifierOptions)) *ModelClassifier {
	opts := ModelClassifierOptions{
		Prompts:  prompt.Default(),
		Timeout:  30 * time.Second,
		Fallback: RuleClassifier{},
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelClassifier{llm: llm, opts: opts}
}

// Assess implements Classifier.
func (c *ModelClassifier) Assess(ctx context.Context, utterances []string) (Assessment, error) {
	var a Assessment

	err := c.classify(ctx, c.opts.Prompts.Assess, nil, strings.Join(utterances, "\n"), &a)
	if err != nil {
		if ctx.Err() != nil {
			return Assessment{}, ctx.Err()
		}
		c.opts.Logger.Warn("orchestrator.classifier.fallback", "op", "assess", "error", err)
		return c.opts.Fallback.Assess(ctx, utterances)
	}

	return a, nil
}

// Decide implements Classifier. Blank text is never approval.
func (c *ModelClassifier) Decide(ctx context.Context, gate Gate, text string) (Decision, error) {
	if strings.TrimSpace(text) == "" {
		return DecisionRevise, nil
	}

	var out struct {
		Decision string `json:"decision"`
	}

	err := c.classify(ctx, c.opts.Prompts.Decide, map[string]any{"gate": string(gate)}, text, &out)
	if err == nil {
		switch Decision(strings.ToLower(strings.TrimSpace(out.Decision))) {
		case DecisionApprove:
			return DecisionApprove, nil
		case DecisionRevise:
			return DecisionRevise, nil
		default:
			err = fmt.Errorf("%w: decision %q", ErrUnparsableClassification, out.Decision)
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	c.opts.Logger.Warn("orchestrator.classifier.fallback", "op", "decide", "gate", string(gate), "error", err)

	return c.opts.Fallback.Decide(ctx, gate, text)
}

func (c *ModelClassifier) classify(ctx context.Context, tmpl string, data map[string]any, text string, into any) error {
	instructions, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		return err
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	temperature := 0.0

	respCh, errCh := c.llm.Generate(ctx, model.Request{
		Agent:        classifierAgent,
		Instructions: instructions,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, text)},
		Temperature:  &temperature,
		MaxTokens:    128,
	})

	resp, err := model.Collect(ctx, respCh, errCh)
	if err != nil {
		return err
	}

	raw := resp.Content.Text()

	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: %q", ErrUnparsableClassification, raw)
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), into); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsableClassification, err)
	}

	return nil
}
