package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/kozi-platform/kozi-agent/internal/auth"
	"github.com/kozi-platform/kozi-agent/internal/llm"
)

// Intent is the category assigned to a user utterance.
type Intent string

const (
	IntentConversational Intent = "chat"
	IntentDataQuery      Intent = "sql"
	IntentMailbox        Intent = "gmail"
)

// ClassificationResult carries the intent plus, for conversational
// short-circuits, the response text itself.
type ClassificationResult struct {
	Intent   Intent `json:"type"`
	Response string `json:"response,omitempty"`
}

const defaultHelpResponse = "I'm here to help with Kozi platform requests. Please tell me more about what you need."

const privilegeResponse = "You need admin access to work with emails. You can ask me for job or platform info instead."

// Classifier assigns one of the three intents. Classification failure never
// blocks the user from getting some response: every failure path lands on
// conversational with a help message.
type Classifier struct {
	LLM llm.Completer
}

func NewClassifier(c llm.Completer) *Classifier {
	return &Classifier{LLM: c}
}

func (cl *Classifier) Classify(ctx context.Context, utterance string, role auth.Role) ClassificationResult {
	result, matched := prefilter(utterance)
	if !matched {
		result = cl.classifyWithModel(ctx, utterance, role)
	}

	// Courtesy downgrade for non-admin mailbox asks. The dispatcher holds
	// the authoritative gate; this only shapes the reply.
	if result.Intent == IntentMailbox && role != auth.RoleAdmin {
		return ClassificationResult{Intent: IntentConversational, Response: privilegeResponse}
	}
	return result
}

// prefilter recognizes unambiguous phrasings without a model round trip.
// It is an acceleration layer, not the correctness mechanism: anything it
// does not recognize goes to the model.
func prefilter(utterance string) (ClassificationResult, bool) {
	u := strings.ToLower(utterance)

	if containsAny(u, "email", "inbox", "unread", "mailbox", "gmail") {
		return ClassificationResult{Intent: IntentMailbox}, true
	}
	if _, ok := LookupShortcut(utterance); ok {
		return ClassificationResult{Intent: IntentDataQuery}, true
	}
	if containsAny(u, "how many", "count ", "list all", "select ") {
		return ClassificationResult{Intent: IntentDataQuery}, true
	}
	return ClassificationResult{}, false
}

const classifierPrompt = `You are the official Kozi AI assistant for a recruitment platform.
Classify the user's message into exactly one of three categories: "chat", "sql", or "gmail",
and provide a concise, helpful response for "chat" messages.

User role: %s
User message: %q

Rules:
1. "chat" - platform help. Job seekers asking about finding or applying for jobs,
   employers asking about hiring or posting jobs. Respond with short, actionable guidance.
2. "sql" - requests to query jobs, employers, job seekers, applications, payments,
   or platform statistics.
3. "gmail" - email actions (read, search, send). Only admins can execute these.

Return ONLY a JSON object with exactly these keys:
{"type": "chat" | "sql" | "gmail", "response": "concise response, empty for sql/gmail"}`

func (cl *Classifier) classifyWithModel(ctx context.Context, utterance string, role auth.Role) ClassificationResult {
	raw, err := cl.LLM.Short(ctx, fmt.Sprintf(classifierPrompt, role, utterance))
	if err != nil {
		log.Printf("⚠️ Classifier: backend error, defaulting to chat: %v", err)
		return ClassificationResult{Intent: IntentConversational, Response: defaultHelpResponse}
	}
	return parseClassification(raw)
}

// parseClassification is the single place model output becomes a
// ClassificationResult. Anything unparsable defaults to conversational.
func parseClassification(raw string) ClassificationResult {
	var parsed ClassificationResult
	if err := json.Unmarshal([]byte(stripArtifacts(raw)), &parsed); err != nil {
		log.Printf("⚠️ Classifier: unparsable model output, defaulting to chat")
		return ClassificationResult{Intent: IntentConversational, Response: defaultHelpResponse}
	}
	switch parsed.Intent {
	case IntentConversational, IntentDataQuery, IntentMailbox:
		if parsed.Intent == IntentConversational && parsed.Response == "" {
			parsed.Response = defaultHelpResponse
		}
		return parsed
	default:
		return ClassificationResult{Intent: IntentConversational, Response: defaultHelpResponse}
	}
}
