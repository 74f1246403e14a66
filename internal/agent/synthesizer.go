package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kozi-platform/kozi-agent/internal/llm"
	"github.com/kozi-platform/kozi-agent/internal/schema"
)

// Kind is the declared nature of a synthesized statement.
type Kind string

const (
	KindRead        Kind = "read"
	KindWrite       Kind = "write"
	KindUnparseable Kind = "unparseable"
)

// SynthesizedQuery is the tagged generation result. Only KindRead may
// proceed to the safety gate and executor; KindWrite is surfaced back to
// the caller as a proposal.
type SynthesizedQuery struct {
	SQL  string `json:"sql"`
	Kind Kind   `json:"type"`
}

// Synthesizer turns a natural-language ask plus schema context into a
// single constrained SQL statement.
type Synthesizer struct {
	LLM llm.Completer
}

func NewSynthesizer(c llm.Completer) *Synthesizer {
	return &Synthesizer{LLM: c}
}

const synthesisPrompt = `You translate a request into ONE SQL statement for a PostgreSQL recruitment database.

Database schema:
%s

Rules:
- Use only the exact table and column names from the schema above.
- Produce a single statement. Reads must be a single SELECT with LIMIT %d
  unless the request explicitly asks for a different number of rows.
- Select only the columns relevant to the request. Use SELECT * only when
  the request is generic ("show me everything about ...").
- If the request would modify data, do NOT refuse: report it with type "write".

Request: %q

Return ONLY a JSON object: {"type": "read" | "write", "sql": "<SQL statement>"}`

func (s *Synthesizer) Synthesize(ctx context.Context, utterance string, desc schema.Description) (SynthesizedQuery, error) {
	prompt := fmt.Sprintf(synthesisPrompt, desc.Render(), DefaultRowCap, utterance)

	raw, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return SynthesizedQuery{Kind: KindUnparseable}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	if strings.TrimSpace(raw) == "" {
		return SynthesizedQuery{Kind: KindUnparseable}, fmt.Errorf("%w: empty output", ErrSynthesisFailed)
	}

	parsed := parseSynthesis(raw)
	if parsed.Kind == KindUnparseable {
		return parsed, fmt.Errorf("%w: unparsable output", ErrSynthesisFailed)
	}
	return parsed, nil
}

// parseSynthesis is the single parsing routine for generation output.
// Total over its input: every string maps to a tagged result, with
// KindUnparseable as the sink state.
func parseSynthesis(raw string) SynthesizedQuery {
	cleaned := stripArtifacts(raw)

	var parsed SynthesizedQuery
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		parsed.SQL = strings.TrimSpace(parsed.SQL)
		if parsed.SQL == "" {
			return SynthesizedQuery{Kind: KindUnparseable}
		}
		switch parsed.Kind {
		case KindRead, KindWrite:
			return parsed
		}
		return SynthesizedQuery{Kind: KindUnparseable}
	}

	// Some backends answer with bare SQL despite the contract. Accept it
	// when it at least looks like a statement; the safety gate still rules.
	if head := strings.ToUpper(firstToken(cleaned)); head == "SELECT" || head == "WITH" {
		return SynthesizedQuery{SQL: cleaned, Kind: KindRead}
	}
	return SynthesizedQuery{Kind: KindUnparseable}
}

// stripArtifacts removes code fences and fence labels the model wraps
// around its output.
func stripArtifacts(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop a language label on the fence line
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			first := strings.TrimSpace(s[:i])
			if len(first) <= 10 && !strings.ContainsAny(first, "{}();") {
				s = s[i+1:]
			}
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func firstToken(s string) string {
	toks := tokenize(s)
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}
