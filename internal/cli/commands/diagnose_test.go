package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/config"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

func TestNewDiagnoseCommand(t *testing.T) {
	cmd := NewDiagnoseCommand(&GlobalOptions{})

	if cmd.Use != "diagnose [source...]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	// Check verbose flag exists
	if cmd.Flags().Lookup("verbose") == nil {
		t.Error("Missing verbose flag")
	}
}

func TestRunDiagnose_Healthy(t *testing.T) {
	dir := isolate(t)
	logPath := writeFile(t, dir, "agent_logs.csv", fixture)

	res := execute(NewDiagnoseCommand(&GlobalOptions{LogLevel: "error"}), "", logPath)
	if res.err != nil {
		t.Fatalf("Execute() error = %v", res.err)
	}
	if res.code != ExitOK {
		t.Errorf("ExitCode = %d, want %d:\n%s", res.code, ExitOK, res.stdout)
	}

	for _, want := range []string{
		"=== breadcrumbs Diagnostics ===",
		"[PASS] Config",
		"No config file found, using defaults",
		"[PASS] Source: " + logPath,
		"3 rows, 3 entries (csv",
		"Payloads: " + logPath,
		"Timestamps: " + logPath,
		"0 errors",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestRunDiagnose_MissingSource(t *testing.T) {
	dir := isolate(t)

	res := execute(NewDiagnoseCommand(&GlobalOptions{LogLevel: "error"}), "", filepath.Join(dir, "missing.csv"))
	if res.err != nil {
		t.Fatalf("Execute() error = %v", res.err)
	}
	if res.code != ExitFailure {
		t.Errorf("ExitCode = %d, want %d", res.code, ExitFailure)
	}
	if !strings.Contains(res.stdout, "[FAIL] Source:") || !strings.Contains(res.stdout, "Cannot read source") {
		t.Errorf("output = %s", res.stdout)
	}
	if !strings.Contains(res.stdout, "Fix the errors above") {
		t.Errorf("output should end with the error summary:\n%s", res.stdout)
	}
}

func TestRunDiagnose_NoSources(t *testing.T) {
	isolate(t)

	res := execute(NewDiagnoseCommand(&GlobalOptions{}), "")
	if res.err != nil {
		t.Fatalf("Execute() error = %v", res.err)
	}
	if res.code != ExitFailure {
		t.Errorf("ExitCode = %d, want %d", res.code, ExitFailure)
	}
	if !strings.Contains(res.stdout, "[FAIL] Config") || !strings.Contains(res.stdout, "breadcrumbs config init") {
		t.Errorf("output = %s", res.stdout)
	}
}

func TestRunDiagnose_EmptyDirectory(t *testing.T) {
	dir := isolate(t)
	logs := filepath.Join(dir, "logs")
	if err := os.Mkdir(logs, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, logs, "notes.txt", "")

	res := execute(NewDiagnoseCommand(&GlobalOptions{}), "", logs)
	if res.code != ExitFailure || !strings.Contains(res.stdout, "No log files found") {
		t.Errorf("code = %d, output = %s", res.code, res.stdout)
	}
}

func TestCheckSource_Warnings(t *testing.T) {
	src := source.NewReaderSource("partial.csv", strings.NewReader("action_id,session_id\n,s1\na1,s1\n"), source.FormatCSV)

	results := checkSource(context.Background(), src, &DiagnoseOptions{})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	r := results[0]
	if r.Status != statusWarning {
		t.Errorf("Status = %s, want warning", r.Status)
	}
	details := strings.Join(r.Details, "\n")
	if !strings.Contains(details, "Missing headers: timestamp") {
		t.Errorf("Details = %v", r.Details)
	}
	if !strings.Contains(details, "1 row(s) dropped") {
		t.Errorf("Details = %v", r.Details)
	}

	// No entry has a timestamp.
	if results[2].Status != statusWarning || !strings.Contains(results[2].Message, "No entries have a timestamp") {
		t.Errorf("timestamp result = %+v", results[2])
	}
}

func TestCheckSource_Empty(t *testing.T) {
	src := source.NewReaderSource("empty.csv", strings.NewReader(""), source.FormatCSV)

	results := checkSource(context.Background(), src, &DiagnoseOptions{})
	if len(results) != 1 || results[0].Status != statusWarning || !strings.Contains(results[0].Message, "empty") {
		t.Errorf("results = %+v", results)
	}
}

func TestCheckSource_NoEntries(t *testing.T) {
	src := source.NewReaderSource("dropped.csv", strings.NewReader("action_id,session_id\n,s1\n"), source.FormatCSV)

	results := checkSource(context.Background(), src, &DiagnoseOptions{})
	if len(results) != 1 || !strings.Contains(results[0].Message, "No entries found in 1 rows") {
		t.Errorf("results = %+v", results)
	}
}

func TestCheckPayloads(t *testing.T) {
	strict := []parser.LogEntry{{
		ActionID:   "a1",
		InputData:  `{"prompt": "hi"}`,
		OutputData: `{"response": "hello"}`,
	}}
	r := checkPayloads("strict.csv", strict, &DiagnoseOptions{Verbose: true})
	if r.Status != statusOK || r.Message != "2/2 payloads parsed as JSON" {
		t.Errorf("result = %+v", r)
	}
	if len(r.Details) != 2 || r.Details[0] != "input: strict 1, repaired 0, pattern 0" {
		t.Errorf("Details = %v", r.Details)
	}

	r = checkPayloads("strict.csv", strict, &DiagnoseOptions{})
	if len(r.Details) != 0 {
		t.Errorf("details should only be kept in verbose mode: %v", r.Details)
	}

	free := []parser.LogEntry{{ActionID: "a1", InputData: "free text", OutputData: "more text"}}
	r = checkPayloads("free.csv", free, &DiagnoseOptions{})
	if r.Status != statusWarning || !strings.Contains(r.Message, "2/2 payloads recovered by pattern fallback") {
		t.Errorf("result = %+v", r)
	}
}

func TestCheckTimestamps(t *testing.T) {
	entries := func(values ...string) []parser.LogEntry {
		out := make([]parser.LogEntry, len(values))
		for i, v := range values {
			out[i] = parser.LogEntry{ActionID: "a", Timestamp: v}
		}
		return out
	}

	r := checkTimestamps("ok.csv", entries("2024-01-01T10:00:00Z", "2024-01-01T10:00:01Z"), &DiagnoseOptions{Verbose: true})
	if r.Status != statusOK || !strings.HasPrefix(r.Message, "Format: ") {
		t.Errorf("result = %+v", r)
	}
	if len(r.Details) != 2 {
		t.Errorf("verbose details = %v", r.Details)
	}

	r = checkTimestamps("mixed.csv", entries("2024-01-01T10:00:00Z", "yesterday"), &DiagnoseOptions{})
	if r.Status != statusWarning || !strings.Contains(r.Message, "matches 1/2 timestamps") {
		t.Errorf("result = %+v", r)
	}

	r = checkTimestamps("bad.csv", entries("yesterday", "today"), &DiagnoseOptions{})
	if r.Status != statusWarning || r.Message != "Timestamp format not recognized" {
		t.Errorf("result = %+v", r)
	}
}

func TestCheckWebhooks_NoWebhooks(t *testing.T) {
	cfg := config.DefaultConfig()

	if results := checkWebhooks(context.Background(), cfg, &DiagnoseOptions{}); len(results) != 0 {
		t.Errorf("Expected no results in non-verbose mode, got %d", len(results))
	}

	results := checkWebhooks(context.Background(), cfg, &DiagnoseOptions{Verbose: true})
	if len(results) != 1 || results[0].Status != statusOK {
		t.Errorf("results = %+v", results)
	}
}

func TestCheckWebhooks_Connectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Webhooks = []config.WebhookConfig{
		{Name: "ops", URL: server.URL, Trigger: config.WebhookTriggerAlways, Token: "secret"},
		{URL: "http://127.0.0.1:1/hook", Trigger: config.WebhookTriggerOnFailure},
	}

	results := checkWebhooks(context.Background(), cfg, &DiagnoseOptions{Verbose: true})
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	if results[0].Check != "Webhook: ops" || results[0].Message != "Trigger: always" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Check != "Webhook Connectivity: ops" || results[1].Status != statusWarning ||
		!strings.Contains(results[1].Message, "returned status 405") {
		t.Errorf("results[1] = %+v", results[1])
	}
	if results[2].Check != "Webhook: http://127.0.0.1:1/hook" {
		t.Errorf("results[2] = %+v", results[2])
	}
	if results[3].Status != statusWarning || !strings.Contains(results[3].Message, "Cannot connect") {
		t.Errorf("results[3] = %+v", results[3])
	}
}

func TestPrintDiagnostics(t *testing.T) {
	results := []DiagnosticResult{
		{Check: "Config", Status: statusOK, Message: "fine", Details: []string{"hidden"}},
		{Check: "Source: a.csv", Status: statusWarning, Message: "odd", Details: []string{"shown"}},
		{Check: "Source: b.csv", Status: statusError, Message: "broken", Suggests: []string{"fix it"}},
	}

	var buf bytes.Buffer
	errCount := printDiagnostics(&buf, results, &DiagnoseOptions{})
	out := buf.String()

	if errCount != 1 {
		t.Errorf("errCount = %d, want 1", errCount)
	}
	for _, want := range []string{"[PASS] Config", "[WARN] Source: a.csv", "- shown", "[FAIL] Source: b.csv", "Hint: fix it", "Summary: 1 passed, 1 warnings, 1 errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("details of passing checks should only show in verbose mode")
	}
}
