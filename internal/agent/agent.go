package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/kozi-platform/kozi-agent/internal/llm"
	"github.com/kozi-platform/kozi-agent/internal/schema"
)

// SchemaSource provides the generation context. Failures degrade to an
// empty description; synthesis quality drops but requests keep working.
type SchemaSource interface {
	Describe(ctx context.Context) (schema.Description, error)
}

// Agent orchestrates the natural-language query pipeline:
// shortcut | (synthesize -> safety gate) -> execute -> format.
type Agent struct {
	Classifier  *Classifier
	Synthesizer *Synthesizer
	Runner      QueryRunner
	Schema      SchemaSource
}

func New(c llm.Completer, runner QueryRunner, src SchemaSource) *Agent {
	return &Agent{
		Classifier:  NewClassifier(c),
		Synthesizer: NewSynthesizer(c),
		Runner:      runner,
		Schema:      src,
	}
}

// RunResult is one terminal pipeline outcome. Exactly one of Result or
// ProposedSQL is set for successful runs.
type RunResult struct {
	Text        string       `json:"text"`
	Result      *QueryResult `json:"result,omitempty"`
	ProposedSQL string       `json:"proposed_sql,omitempty"`
}

// Run executes the data-query pipeline for one utterance.
func (a *Agent) Run(ctx context.Context, input string) (RunResult, error) {
	return a.runData(ctx, input, func(string) {})
}

// RunStream executes the pipeline while emitting lifecycle events on the
// session. Always leaves the session in a terminal state.
func (a *Agent) RunStream(ctx context.Context, input string, s *Session) {
	go func() {
		select {
		case <-ctx.Done():
			s.Abort()
		case <-s.Terminated():
		}
	}()

	s.Start()
	res, err := a.runData(ctx, input, s.Message)
	if err != nil {
		s.Fail(UserMessage(err))
		return
	}
	s.Message(res.Text)
	s.Done()
}

// GenerateSQL synthesizes a statement without executing it.
func (a *Agent) GenerateSQL(ctx context.Context, input string) (SynthesizedQuery, error) {
	desc := a.describeOrDegrade(ctx)
	return a.Synthesizer.Synthesize(ctx, input, desc)
}

func (a *Agent) runData(ctx context.Context, input string, emit func(string)) (RunResult, error) {
	if sc, ok := LookupShortcut(input); ok {
		emit(fmt.Sprintf("matched known request pattern: %s", sc.Name))
		res, err := a.Runner.Execute(ctx, sc.SQL)
		if err != nil {
			return RunResult{}, err
		}
		return RunResult{Text: FormatResult(res), Result: &res}, nil
	}

	desc := a.describeOrDegrade(ctx)
	emit("generating SQL for your request")

	q, err := a.Synthesizer.Synthesize(ctx, input, desc)
	if err != nil {
		return RunResult{}, err
	}

	if q.Kind == KindWrite {
		// Never auto-executed, for any role. Handed back as a proposal.
		return RunResult{
			Text:        "This request would modify data. Review the proposed statement and apply it through an authorized channel.",
			ProposedSQL: q.SQL,
		}, nil
	}

	stmt, err := Validate(q.SQL)
	if err != nil {
		return RunResult{}, err
	}

	emit("executing query")
	res, err := a.Runner.Execute(ctx, stmt)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{Text: FormatResult(res), Result: &res}, nil
}

func (a *Agent) describeOrDegrade(ctx context.Context) schema.Description {
	desc, err := a.Schema.Describe(ctx)
	if err != nil {
		log.Printf("⚠️ Agent: schema introspection failed, degrading to empty description: %v", err)
		return schema.Description{}
	}
	return desc
}
