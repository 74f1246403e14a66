package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/kozi-platform/kozi-agent/internal/agent"
	"github.com/kozi-platform/kozi-agent/internal/auth"
	"github.com/kozi-platform/kozi-agent/internal/dtos"
	"github.com/kozi-platform/kozi-agent/internal/gmailagent"
)

// streamTimeout bounds one streaming request end to end.
const streamTimeout = 30 * time.Second

type AgentHandler struct {
	Agent      *agent.Agent
	Dispatcher *gmailagent.Dispatcher
}

func NewAgentHandler(a *agent.Agent, d *gmailagent.Dispatcher) *AgentHandler {
	return &AgentHandler{Agent: a, Dispatcher: d}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunQuery is POST /sql-agent: full pipeline, single JSON response.
func (h *AgentHandler) RunQuery(c *gin.Context) {
	var req dtos.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing input query"})
		return
	}

	res, err := h.Agent.Run(c.Request.Context(), req.Input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": agent.UserMessage(err)})
		return
	}
	if res.ProposedSQL != "" {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"type":    "write",
			"sql":     res.ProposedSQL,
			"info":    res.Text,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// StreamQuery is GET /sql-agent/stream: lifecycle events over SSE,
// terminated by a [DONE] sentinel.
func (h *AgentHandler) StreamQuery(c *gin.Context) {
	input := c.Query("input")
	if input == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing input query"})
		return
	}

	session := agent.NewSession(streamTimeout)
	go h.Agent.RunStream(c.Request.Context(), input, session)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-session.Events()
		if !ok {
			// channel closed without a visible terminal event (abort)
			return false
		}
		if ev.Type == agent.EventDone {
			sse.Encode(w, sse.Event{Event: "done", Data: "[DONE]"})
			return false
		}
		data, _ := json.Marshal(gin.H{"content": ev.Content})
		sse.Encode(w, sse.Event{Event: string(ev.Type), Data: string(data)})
		return true
	})
}

// SimpleQuery is POST /sql-agent/simple: structured rows, no prose.
func (h *AgentHandler) SimpleQuery(c *gin.Context) {
	var req dtos.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing input query"})
		return
	}

	res, err := h.Agent.Run(c.Request.Context(), req.Input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": agent.UserMessage(err)})
		return
	}
	if res.Result == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "The request did not produce rows."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"rows":      res.Result.Rows,
		"row_count": res.Result.RowCount,
		"truncated": res.Result.Truncated,
	})
}

// GenerateSQL is POST /generate-sql: synthesis only, nothing executed.
func (h *AgentHandler) GenerateSQL(c *gin.Context) {
	var req dtos.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing input query"})
		return
	}

	q, err := h.Agent.GenerateSQL(c.Request.Context(), req.Input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": agent.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "type": q.Kind, "sql": q.SQL})
}

// SimpleText is POST /simple-query: the formatted text table only.
func (h *AgentHandler) SimpleText(c *gin.Context) {
	var req dtos.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing input query"})
		return
	}

	res, err := h.Agent.Run(c.Request.Context(), req.Input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": agent.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res.Text})
}

// Classify is POST /classifier. The verified identity role wins; the
// client-supplied userType only matters when the gateway sent no role.
func (h *AgentHandler) Classify(c *gin.Context) {
	var req dtos.ClassifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing message"})
		return
	}

	id := auth.IdentityFrom(c)
	role := id.Role
	if !id.Verified && req.UserType != "" {
		role = auth.ParseRole(req.UserType)
	}

	result := h.Agent.Classifier.Classify(c.Request.Context(), req.Message, role)
	c.JSON(http.StatusOK, result)
}

// GmailAgent is POST /gmail/agent, privileged role only.
func (h *AgentHandler) GmailAgent(c *gin.Context) {
	var req dtos.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Input is required"})
		return
	}

	outcome, err := h.Dispatcher.Dispatch(c.Request.Context(), req.Input, auth.IdentityFrom(c))
	switch {
	case errors.Is(err, gmailagent.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Only admins can run mailbox actions."})
	case errors.Is(err, auth.ErrCredentialsUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Mail credentials are not configured."})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Mailbox action failed."})
	default:
		resp := gin.H{"success": true, "output": outcome.Output}
		if outcome.Sent > 0 || len(outcome.Failures) > 0 {
			resp["sent"] = outcome.Sent
			resp["failures"] = outcome.Failures
		}
		c.JSON(http.StatusOK, resp)
	}
}
