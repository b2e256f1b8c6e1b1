package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/export"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const fixture = `action_id,session_id,timestamp,action_type,input_data,output_data,model_name,prompt_tokens,completion_tokens,total_tokens,cost_usd,duration_ms,metadata
a1,s1,2024-01-01T10:00:00Z,llm_call,{prompt:hello <world>},{response:hi},gpt-4,10,5,15,0.001,200,{}
a2,s1,2024-01-01T10:00:01Z,llm_call,{prompt:find},{response:🔧 Decided to call tool: search(q=go)},gpt-4,10,5,15,0.002,300,{}
a3,s2,2024-01-01T10:00:02Z,tool_use,{prompt:search},{response:results},,,,,,,{}
`

// swapSource serves data until err is set.
type swapSource struct {
	mu   sync.Mutex
	data string
	err  error
}

func (s *swapSource) Name() string          { return "swap.csv" }
func (s *swapSource) Format() source.Format { return source.FormatCSV }

func (s *swapSource) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, &source.Error{Source: "swap.csv", Err: s.err}
	}
	return []byte(s.data), nil
}

func (s *swapSource) set(data string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.err = data, err
}

func newTestServer(t *testing.T, data string, loadErr error) (*swapSource, *loader.Loader, http.Handler) {
	t.Helper()
	src := &swapSource{data: data, err: loadErr}
	l := loader.New([]source.Source{src})
	_, _ = l.Load(context.Background())

	return src, l, NewServer("", l).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["entries"])
	assert.Equal(t, float64(1), body["generation"])
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	_, _, h := newTestServer(t, "", errors.New("connection refused"))

	w := get(t, h, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Contains(t, body["error"], "connection refused")
}

func TestHealthEndpoint_WrongMethod(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("health POST status = %d, want 405 or 404", w.Code)
	}
}

func TestSessionsEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/sessions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions []struct {
			ID      string `json:"session_id"`
			Preview string `json:"preview"`
			Stats   struct {
				Entries int `json:"entries"`
			} `json:"stats"`
		} `json:"sessions"`
		Total   int    `json:"total"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Total)
	assert.Empty(t, body.Message)
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, "s1", body.Sessions[0].ID)
	assert.Equal(t, "hello <world>", body.Sessions[0].Preview)
	assert.Equal(t, 2, body.Sessions[0].Stats.Entries)
	assert.Contains(t, w.Body.String(), "hello <world>", "payload text is not HTML-escaped")
}

// A failed load and an empty load are reported differently.
func TestSessionsEndpoint_FailedVersusEmpty(t *testing.T) {
	_, _, failed := newTestServer(t, "", errors.New("no such file"))
	w := get(t, failed, "/api/sessions")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, MsgUnavailable, decode(t, w)["error"])

	_, _, empty := newTestServer(t, "action_id,session_id\n,s1\n", nil)
	w = get(t, empty, "/api/sessions")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, MsgNoEntries, body["message"])
	assert.Equal(t, []any{}, body["sessions"])
}

func TestSessionEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/sessions/s1")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Session struct {
			ID string `json:"session_id"`
		} `json:"session"`
		Entries []struct {
			ActionID string `json:"action_id"`
			Input    struct {
				Text string `json:"text"`
			} `json:"input"`
			ToolCalls struct {
				HasTools bool `json:"has_tools"`
				Tools    []struct {
					NameAndArgs string `json:"name_and_args"`
				} `json:"tools"`
			} `json:"tool_calls"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "s1", body.Session.ID)
	require.Len(t, body.Entries, 2)
	assert.Equal(t, "hello <world>", body.Entries[0].Input.Text)
	assert.False(t, body.Entries[0].ToolCalls.HasTools)
	require.True(t, body.Entries[1].ToolCalls.HasTools)
	assert.Equal(t, "search(q=go)", body.Entries[1].ToolCalls.Tools[0].NameAndArgs)
}

func TestSessionEndpoint_NotFound(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/sessions/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEndpoint_Query(t *testing.T) {
	data := fixture + "a4,,2024-01-01T10:00:03Z,llm_call,{prompt:orphan},{response:ok},,,,,,,{}\n"
	_, _, h := newTestServer(t, data, nil)

	w := get(t, h, "/api/session?session_id=")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Session struct {
			ID string `json:"session_id"`
		} `json:"session"`
		Entries []struct {
			ActionID string `json:"action_id"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "", body.Session.ID)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "a4", body.Entries[0].ActionID)

	w = get(t, h, "/api/session?session_id=s2")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, h, "/api/session")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, h, "/api/session?session_id=missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTracesEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	tests := []struct {
		path      string
		wantTotal int
		wantFirst string
	}{
		{"/api/traces", 3, "a1"},
		{"/api/traces?session_id=s2", 1, "a3"},
		{"/api/traces?session_id=unknown", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, h, tt.path)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Traces []struct {
					ActionID    string   `json:"action_id"`
					TotalTokens *int64   `json:"total_tokens"`
					CostUSD     *float64 `json:"cost_usd"`
				} `json:"traces"`
				Total int `json:"total"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

			assert.Equal(t, tt.wantTotal, body.Total)
			require.Len(t, body.Traces, tt.wantTotal)
			if tt.wantTotal > 0 {
				assert.Equal(t, tt.wantFirst, body.Traces[0].ActionID)
			}
		})
	}

	// Missing numerics are null.
	w := get(t, h, "/api/traces?session_id=s2")
	assert.Contains(t, w.Body.String(), `"total_tokens":null`)
}

func TestStatsEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(3), body["total_traces"])
	assert.Equal(t, float64(2), body["total_sessions"])
	assert.Equal(t, float64(30), body["total_tokens"])
	assert.Equal(t, float64(2), body["llm_calls"])
	assert.InDelta(t, 0.003, body["total_cost"], 1e-9)
	assert.InDelta(t, 500.0/3, body["avg_duration"], 1e-9)
}

func TestExportEndpoint_CSV(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/export?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "action_id", records[0][0])
	assert.Equal(t, "a3", records[3][0])
}

func TestExportEndpoint_XLSX(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/api/export?format=xlsx")
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestExportEndpoint_Errors(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/export?format=pdf").Code)

	_, _, failed := newTestServer(t, "", errors.New("gone"))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, failed, "/api/export").Code)
}

func TestReloadEndpoint(t *testing.T) {
	src, l, h := newTestServer(t, fixture, nil)

	src.set(fixture+"a4,s3,2024-01-01T10:00:03Z,llm_call,,,,,,,,,\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["generation"])
	assert.Equal(t, float64(4), body["entries"])
	assert.Equal(t, float64(3), body["sessions"])

	src.set("", errors.New("disk gone"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, l.Current().Failed())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/sessions").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, fixture, nil)

	w := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "breadcrumbs_loads_total"))
}

func TestServer_StartStop(t *testing.T) {
	_, l, _ := newTestServer(t, fixture, nil)

	srv := NewServer("127.0.0.1:0", l)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RunStopsWithContext(t *testing.T) {
	_, l, _ := newTestServer(t, fixture, nil)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", l)

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
