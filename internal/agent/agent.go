// Package agent runs the model-driven dialogue loop over the booking tools.
// Each run returns its own Trace; nothing is kept between runs.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/tools"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// DefaultMaxSteps bounds model round trips per user message.
const DefaultMaxSteps = 10

const maxTraceText = 200

// StepType labels a trace entry.
type StepType string

const (
	StepToolCall   StepType = "tool-call"
	StepToolResult StepType = "tool-result"
	StepText       StepType = "text"
)

// Step is one entry in a Trace. Entries produced by the same model response
// share a StepNumber.
type Step struct {
	StepNumber int            `json:"stepNumber"`
	Type       StepType       `json:"type"`
	ToolName   string         `json:"toolName,omitempty"`
	ToolArgs   map[string]any `json:"toolArgs,omitempty"`
	ToolResult map[string]any `json:"toolResult,omitempty"`
	Text       string         `json:"text,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Trace records what the agent did while answering one message.
type Trace struct {
	Steps         []Step   `json:"steps"`
	TotalSteps    int      `json:"totalSteps"`
	ToolsUsed     []string `json:"toolsUsed"`
	FinalResponse string   `json:"finalResponse,omitempty"`
}

func newTrace() *Trace {
	return &Trace{Steps: []Step{}, ToolsUsed: []string{}}
}

func (t *Trace) addTool(name string) {
	for _, used := range t.ToolsUsed {
		if used == name {
			return
		}
	}
	t.ToolsUsed = append(t.ToolsUsed, name)
}

// StepFunc receives trace entries as they are recorded.
type StepFunc func(Step)

// TurnObserver records the outcome of each run.
type TurnObserver interface {
	ObserveAgentTurn(outcome string, steps int)
}

type Config struct {
	ClinicName  string
	ClinicPhone string
	MaxSteps    int
	Location    *time.Location
	Now         func() time.Time
}

type Agent struct {
	model   Model
	tools   tools.Toolbox
	cfg     Config
	metrics TurnObserver
	logger  *logging.Logger
}

func New(model Model, tb tools.Toolbox, cfg Config, metrics TurnObserver, logger *logging.Logger) *Agent {
	if model == nil || tb == nil {
		panic("agent: model and toolbox required")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Agent{model: model, tools: tb, cfg: cfg, metrics: metrics, logger: logger}
}

// Run answers text given the prior history. The returned trace is never nil,
// even when err is set, so callers can log how far the run got.
func (a *Agent) Run(ctx context.Context, history []Message, text string, onStep StepFunc) (*Trace, error) {
	trace := newTrace()
	if strings.TrimSpace(text) == "" {
		return trace, errors.New("agent: message is required")
	}
	record := func(s Step) {
		trace.Steps = append(trace.Steps, s)
		if onStep != nil {
			onStep(s)
		}
	}

	system := BuildSystemPrompt(a.cfg.ClinicName, a.cfg.ClinicPhone, a.cfg.Now().In(a.cfg.Location))
	session := a.model.StartSession(system, history)
	reply, err := session.Send(ctx, text)
	outcome := "completed"

	for {
		if err != nil {
			a.observe("error", trace)
			return trace, fmt.Errorf("agent: step %d: %w", trace.TotalSteps+1, err)
		}
		trace.TotalSteps++
		n := trace.TotalSteps
		ts := a.cfg.Now().UTC()

		if len(reply.Calls) == 0 {
			if reply.Text != "" {
				record(Step{StepNumber: n, Type: StepText, Text: truncate(reply.Text), Timestamp: ts})
			}
			trace.FinalResponse = reply.Text
			break
		}

		responses := make([]ToolResponse, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			record(Step{StepNumber: n, Type: StepToolCall, ToolName: call.Name, ToolArgs: call.Args, Timestamp: ts})
			trace.addTool(call.Name)
		}
		for _, call := range reply.Calls {
			result, convErr := toMap(dispatch(ctx, a.tools, call))
			if convErr != nil {
				a.observe("error", trace)
				return trace, convErr
			}
			a.logger.Debug("tool executed", "step", n, "tool", call.Name)
			record(Step{StepNumber: n, Type: StepToolResult, ToolName: call.Name, ToolResult: result, Timestamp: ts})
			responses = append(responses, ToolResponse{Name: call.Name, Result: result})
		}
		if reply.Text != "" {
			record(Step{StepNumber: n, Type: StepText, Text: truncate(reply.Text), Timestamp: ts})
		}

		if n >= a.cfg.MaxSteps {
			outcome = "max_steps"
			a.logger.Warn("agent step limit reached", "steps", n, "tools_used", trace.ToolsUsed)
			break
		}
		reply, err = session.SendToolResponses(ctx, responses)
	}

	if strings.TrimSpace(trace.FinalResponse) == "" {
		if outcome == "completed" {
			outcome = "empty"
		}
		trace.FinalResponse = fmt.Sprintf(
			"I'm sorry, I wasn't able to finish that request. Please try again or call the clinic at %s.", a.cfg.ClinicPhone)
	}
	a.logger.Info("agent finished", "outcome", outcome, "steps", trace.TotalSteps, "tools_used", trace.ToolsUsed)
	a.observe(outcome, trace)
	return trace, nil
}

func (a *Agent) observe(outcome string, trace *Trace) {
	if a.metrics != nil {
		a.metrics.ObserveAgentTurn(outcome, trace.TotalSteps)
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTraceText {
		return s
	}
	return string(r[:maxTraceText])
}
