package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/analyzer"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/config"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/normalize"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/timestamp"
)

// Diagnostic statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [source...]",
		Short: "Diagnose configuration and log source problems",
		Long: `Diagnose common configuration and log source problems.

This command checks:
- Config file syntax and settings
- Each source is readable and has the expected headers
- Rows dropped for a missing action_id
- How input and output payloads were recovered
- Which timestamp format the entries use
- Webhook settings (and reachability with -v)

Exits 2 when any check fails.`,
		Example: `  breadcrumbs diagnose
  breadcrumbs diagnose -v agent_logs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args, g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string, g *GlobalOptions, opts *DiagnoseOptions) error {
	ctx := commandContext(cmd)
	results := []DiagnosticResult{}

	// 1. Load and validate the config
	cfg, result := checkConfig(ctx, g, args)
	results = append(results, result)
	if result.Status == statusError {
		return finishDiagnostics(cmd.OutOrStdout(), results, opts)
	}

	// 2. Check each source
	sources, err := buildSources(cfg, cmd.InOrStdin())
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:   "Sources",
			Status:  statusError,
			Message: err.Error(),
		})
		return finishDiagnostics(cmd.OutOrStdout(), results, opts)
	}
	results = append(results, checkSources(ctx, sources, opts)...)

	// 3. Check webhooks
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	return finishDiagnostics(cmd.OutOrStdout(), results, opts)
}

func finishDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) error {
	if errCount := printDiagnostics(w, results, opts); errCount > 0 {
		ExitCode = ExitFailure
	}
	return nil
}

func checkConfig(ctx context.Context, g *GlobalOptions, args []string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := g.loadConfig(ctx, args, nil)
	if err != nil {
		result.Status = statusError
		result.Message = err.Error()
		switch {
		case strings.Contains(err.Error(), "sources"):
			result.Suggests = []string{
				"Pass a log file as an argument, or add a sources section to the config",
				"Use 'breadcrumbs config init breadcrumbs.yaml' to write a starter config",
			}
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = statusOK
	if cfg.File != "" {
		result.Message = fmt.Sprintf("Loaded %s", cfg.File)
	} else {
		result.Message = "No config file found, using defaults"
	}
	result.Details = []string{
		fmt.Sprintf("Sources: %d", len(cfg.Sources)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
		fmt.Sprintf("Server: %s", cfg.Server.Addr),
	}
	return cfg, result
}

func checkSources(ctx context.Context, sources []source.Source, opts *DiagnoseOptions) []DiagnosticResult {
	if len(sources) == 0 {
		return []DiagnosticResult{{
			Check:   "Sources",
			Status:  statusError,
			Message: "No log files found",
			Suggests: []string{
				"Check the source paths and glob patterns",
				"Directories contribute their .csv, .jsonl, .ndjson and .json files",
			},
		}}
	}

	results := []DiagnosticResult{}
	for _, src := range sources {
		results = append(results, checkSource(ctx, src, opts)...)
	}
	return results
}

// checkSource reads one source and inspects what the parser made of it.
func checkSource(ctx context.Context, src source.Source, opts *DiagnoseOptions) []DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Source: %s", src.Name()),
	}

	data, err := src.Read(ctx)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot read source: %v", err)
		result.Suggests = []string{
			"Check the path or URL is correct",
			"Check file permissions or that the server is running",
		}
		return []DiagnosticResult{result}
	}

	if len(data) == 0 {
		result.Status = statusWarning
		result.Message = "Source is empty (0 bytes)"
		return []DiagnosticResult{result}
	}

	parsed := loader.Decode(data, src.Format())

	result.Status = statusOK
	result.Message = fmt.Sprintf("%d rows, %d entries (%s, %d bytes)", parsed.Rows, len(parsed.Entries), src.Format(), len(data))

	if len(parsed.MissingHeaders) > 0 {
		result.Status = statusWarning
		result.Details = append(result.Details, fmt.Sprintf("Missing headers: %s", strings.Join(parsed.MissingHeaders, ", ")))
		result.Suggests = append(result.Suggests, "Missing columns are read as empty values")
	}
	if parsed.Dropped > 0 {
		result.Status = statusWarning
		result.Details = append(result.Details, fmt.Sprintf("%d row(s) dropped for an empty action_id", parsed.Dropped))
	}
	if len(parsed.Entries) == 0 {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("No entries found in %d rows", parsed.Rows)
		return []DiagnosticResult{result}
	}

	return []DiagnosticResult{
		result,
		checkPayloads(src.Name(), parsed.Entries, opts),
		checkTimestamps(src.Name(), parsed.Entries, opts),
	}
}

// checkPayloads reports which normalization tier recovered each payload.
func checkPayloads(name string, entries []parser.LogEntry, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Payloads: %s", name),
	}

	counts := analyzer.CountTiers(entries)
	pattern := 0
	for _, kind := range []normalize.Kind{normalize.Input, normalize.Output} {
		byTier := counts[kind]
		parts := make([]string, 0, len(normalize.Tiers))
		for _, tier := range normalize.Tiers {
			parts = append(parts, fmt.Sprintf("%s %d", tier, byTier[tier]))
		}
		result.Details = append(result.Details, fmt.Sprintf("%s: %s", kind, strings.Join(parts, ", ")))
		pattern += byTier[normalize.TierPattern]
	}

	total := 2 * len(entries)
	if pattern*2 > total {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("%d/%d payloads recovered by pattern fallback", pattern, total)
		result.Suggests = []string{
			"Payloads are not JSON or near-JSON; only the prompt and response text is kept",
		}
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("%d/%d payloads parsed as JSON", total-pattern, total)
	if !opts.Verbose {
		result.Details = nil
	}
	return result
}

// checkTimestamps detects the timestamp format of the entries.
func checkTimestamps(name string, entries []parser.LogEntry, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Timestamps: %s", name),
	}

	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Timestamp)
	}

	detected := timestamp.New().Detect(values)
	if detected.SampledCount == 0 {
		result.Status = statusWarning
		result.Message = "No entries have a timestamp"
		result.Suggests = []string{"Time range filters keep entries without a timestamp"}
		return result
	}

	best := detected.BestMatch()
	if best == nil {
		result.Status = statusWarning
		result.Message = "Timestamp format not recognized"
		result.Details = []string{fmt.Sprintf("Sample: %s", analyzer.Truncate(values[0], 80))}
		result.Suggests = []string{"Timestamps are shown as recorded and kept by time range filters"}
		return result
	}

	if best.Confidence < 1 {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("%s matches %d/%d timestamps", best.Format.Name, best.MatchCount, detected.SampledCount)
		for _, m := range detected.Matches[1:] {
			result.Details = append(result.Details, fmt.Sprintf("%s: %d", m.Format.Name, m.MatchCount))
		}
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Format: %s", best.Format.Name)
	if opts.Verbose {
		result.Details = []string{
			fmt.Sprintf("Sample: %s", best.Sample),
			fmt.Sprintf("Parsed: %s", best.ParsedTime.Format(time.RFC3339)),
		}
	}
	return result
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  statusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		// Tokens are expanded during validation, so an empty token here
		// came from an unset variable.
		if wh.Token == "" {
			result.Details = append(result.Details, "Token: none")
		} else {
			result.Details = append(result.Details, "Token: configured")
		}
		if opts.Verbose {
			result.Details = append(result.Details,
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			)
		}

		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(ctx, wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Just do a HEAD request to check if the endpoint is reachable
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

// printDiagnostics writes the results and returns the number of errors.
func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(w, "=== breadcrumbs Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = "PASS"
			okCount++
		case statusWarning:
			icon = "WARN"
			warnCount++
		case statusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before loading these sources.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSources are usable but have warnings.")
	} else {
		fmt.Fprintln(w, "\nEverything looks good!")
	}

	return errCount
}
