// breadcrumbs - Agent Execution Log Viewer
//
// breadcrumbs reads the logs an agent tracer writes and reconstructs the
// sessions, LLM calls and tool calls they record.
package main

import (
	"os"

	"github.com/agent-breadcrumbs/breadcrumbs/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
