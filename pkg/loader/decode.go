package loader

import (
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/parser"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

// Decode parses source content in the given format. It never fails: a
// JSON document that is not an array is read as JSON lines instead.
func Decode(data []byte, format source.Format) *parser.Result {
	text := string(data)

	switch format {
	case source.FormatJSONL:
		return parser.ParseJSONL(text)
	case source.FormatJSON:
		if result, err := parser.ParseJSONArray(text); err == nil {
			return result
		}
		return parser.ParseJSONL(text)
	default:
		return parser.ParseDetailed(text)
	}
}
