// Package toolcall finds tool invocations recorded in agent response text.
package toolcall

import (
	"regexp"
	"strings"
)

const (
	// MarkerDecided prefixes a response that is only tool calls:
	// "🔧 Decided to call tool: a(x=1)" or "🔧 Decided to call tools: ...".
	MarkerDecided = "🔧 Decided to call tool"

	// MarkerMixed separates leading text from tool calls:
	// "text\n\n🔧 Tool calls: a(x=1), b()".
	MarkerMixed = "🔧 Tool calls:"
)

var (
	decidedPattern = regexp.MustCompile(`🔧 Decided to call tools?:\s*`)
	nextCall       = regexp.MustCompile(`^\s*\w+\(`)
)

// Call is one tool invocation.
type Call struct {
	// NameAndArgs is the "name(args)" segment as written.
	NameAndArgs string `json:"name_and_args"`
	Name        string `json:"name"`
	Args        string `json:"args"`
}

// Result is the outcome of Extract.
type Result struct {
	HasTools bool   `json:"has_tools"`
	Tools    []Call `json:"tools"`
	// Text is the natural-language part of the response. Without a marker
	// it is the full original text.
	Text string `json:"text"`
}

// Names returns the tool names in call order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Tools))
	for _, c := range r.Tools {
		names = append(names, c.Name)
	}
	return names
}

// Extract looks for a tool invocation marker in text and splits the
// invocation list into calls.
func Extract(text string) Result {
	if idx := strings.Index(text, MarkerMixed); idx >= 0 {
		calls := parseCalls(Split(text[idx+len(MarkerMixed):]))
		if len(calls) > 0 {
			return Result{
				HasTools: true,
				Tools:    calls,
				Text:     strings.TrimSpace(text[:idx]),
			}
		}
	}

	if loc := decidedPattern.FindStringIndex(text); loc != nil {
		calls := parseCalls(Split(text[loc[1]:]))
		if len(calls) > 0 {
			return Result{
				HasTools: true,
				Tools:    calls,
				Text:     strings.TrimSpace(text[:loc[0]]),
			}
		}
	}

	return Result{Tools: []Call{}, Text: text}
}

// Split splits an invocation list at commas that start a new
// "identifier(" call, so commas inside an argument list are kept.
func Split(list string) []string {
	var (
		parts []string
		start int
	)

	for i := 0; i < len(list); i++ {
		if list[i] != ',' || !nextCall.MatchString(list[i+1:]) {
			continue
		}
		if seg := strings.TrimSpace(list[start:i]); seg != "" {
			parts = append(parts, seg)
		}
		start = i + 1
	}
	if seg := strings.TrimSpace(list[start:]); seg != "" {
		parts = append(parts, seg)
	}

	return parts
}

func parseCalls(segments []string) []Call {
	calls := make([]Call, 0, len(segments))
	for _, seg := range segments {
		calls = append(calls, ParseCall(seg))
	}
	return calls
}

// ParseCall splits "name(args)" into its parts. A segment without an
// opening parenthesis is all name.
func ParseCall(segment string) Call {
	segment = strings.TrimSpace(segment)
	call := Call{NameAndArgs: segment, Name: segment}

	open := strings.Index(segment, "(")
	if open < 0 {
		return call
	}

	call.Name = strings.TrimSpace(segment[:open])
	args := segment[open+1:]
	if closing := strings.LastIndex(args, ")"); closing >= 0 {
		args = args[:closing]
	}
	call.Args = strings.TrimSpace(args)
	return call
}
