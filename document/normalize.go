package document

import "strings"

const fence = "```"

// Normalize strips a single leading fence line (with an optional language
// tag) and a single trailing fence line from a model completion, then trims
// the surrounding whitespace. Text without fences is only trimmed. A closing
// fence must start at column 0; indented fences belong to the document.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, fence) {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}

	trimmed := strings.TrimRightFunc(text, isSpace)
	if strings.HasSuffix(trimmed, fence) {
		i := strings.LastIndexByte(trimmed, '\n')
		if trimmed[i+1:] == fence {
			if i < 0 {
				trimmed = ""
			} else {
				trimmed = trimmed[:i]
			}
		}
	}

	return strings.TrimSpace(trimmed)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
