package parser

import (
	"regexp"
	"strings"
)

// docTags holds the declared types pulled out of a declaration's leading
// comment. Absent tags yield empty strings, never errors.
type docTags struct {
	Return string
	Params map[string]string
}

var (
	returnTagRe = regexp.MustCompile(`@return\s+\[([^\]]+)\]`)
	paramTagRe  = regexp.MustCompile(`@param\s+(\S+)\s+\[([^\]]+)\]`)
)

// parseDocs extracts type tags from comment text and returns the comment
// with tag lines stripped, suitable for hover documentation.
func parseDocs(text string) (string, docTags) {
	tags := docTags{Params: map[string]string{}}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if m := returnTagRe.FindStringSubmatch(line); m != nil {
			tags.Return = strings.TrimSpace(m[1])
			continue
		}
		if m := paramTagRe.FindStringSubmatch(line); m != nil {
			tags.Params[m[1]] = strings.TrimSpace(m[2])
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), tags
}
