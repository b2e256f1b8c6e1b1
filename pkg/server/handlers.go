package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/export"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/output"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
)

// User-facing messages for the two "nothing to show" cases.
const (
	MsgUnavailable = "no data available, please retry"
	MsgNoEntries   = "no entries found"
)

// snapshot returns the current snapshot, or writes 503 and returns nil
// when the last load failed.
func (s *Server) snapshot(c *gin.Context) *loader.Snapshot {
	st := s.store.Current()
	if st.Failed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": MsgUnavailable})
		return nil
	}
	return st.Snapshot
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.store.Current()

	body := gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"generation": st.Generation,
	}
	if st.Failed() {
		body["status"] = "degraded"
		body["error"] = st.Err.Error()
	} else {
		body["loaded_at"] = st.Snapshot.LoadedAt
		body["snapshot"] = st.Snapshot.ID
		body["entries"] = len(st.Snapshot.Entries)
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSessions(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	sessions := snap.Summaries()
	body := gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	}
	if len(sessions) == 0 {
		body["message"] = MsgNoEntries
	}

	c.PureJSON(http.StatusOK, body)
}

// handleSession serves /api/sessions/:id and /api/session?session_id=.
// The query form also reaches the session with an empty id, which the
// path form cannot route.
func (s *Server) handleSession(c *gin.Context) {
	id, ok := c.Params.Get("id")
	if !ok {
		if id, ok = c.GetQuery("session_id"); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	summary, ok := snap.Session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.PureJSON(http.StatusOK, output.NewSessionDetail(summary))
}

func (s *Server) handleTraces(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	traces := snap.Entries
	if id, ok := c.GetQuery("session_id"); ok {
		traces, _ = snap.Sessions.Get(id)
		if traces == nil {
			traces = []parser.LogEntry{}
		}
	}

	c.PureJSON(http.StatusOK, gin.H{
		"traces": traces,
		"total":  len(traces),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	c.JSON(http.StatusOK, statsBody(snap.Stats, snap.Sessions.Len()))
}

func statsBody(stats analyzer.Stats, sessions int) gin.H {
	return gin.H{
		"total_traces":   stats.Entries,
		"total_sessions": sessions,
		"llm_calls":      stats.LLMCalls,
		"tool_uses":      stats.ToolUses,
		"total_cost":     stats.TotalCost,
		"total_tokens":   stats.TotalTokens,
		"avg_duration":   stats.AvgDuration,
	}
}

func (s *Server) handleExport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+format.FileName(snap.LoadedAt)+`"`)
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, format, snap.Entries); err != nil {
		s.logger.Warn("export failed", slog.String("format", string(format)), slog.String("error", err.Error()))
	}
}

func (s *Server) handleReload(c *gin.Context) {
	st, err := s.store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      MsgUnavailable,
			"detail":     err.Error(),
			"generation": st.Generation,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generation": st.Generation,
		"snapshot":   st.Snapshot.ID,
		"entries":    len(st.Snapshot.Entries),
		"sessions":   st.Snapshot.Sessions.Len(),
		"duration":   st.Duration.String(),
	})
}
