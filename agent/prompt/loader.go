// Package prompt embeds the system instructions given to the model.
package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// System returns the trimmed system prompt. Safe for concurrent use; the
// embed is compile-time and trimming is cheap.
func System() string {
	return strings.TrimSpace(systemRaw)
}
