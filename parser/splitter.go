package parser

import (
	"strings"
)

// sectionHeading is the markdown heading level documents are split on.
// Each section after the first gets the heading re-attached so the LLM
// sees the section title it belongs to.
const sectionHeading = "\n## "

// SplitSections splits markdown text into section-bounded chunks. Sections at
// or under threshold characters are emitted whole. Larger sections are cut
// into threshold-sized windows advancing by threshold-overlap, so adjacent
// windows share overlap characters; the final window is truncated to the
// section end. Callers must ensure overlap < threshold.
func SplitSections(text string, threshold, overlap int) []string {
	sections := strings.Split(text, sectionHeading)
	stride := threshold - overlap

	var chunks []string
	for i, section := range sections {
		content := section
		if i > 0 {
			content = "## " + section
		}
		if strings.Trim(content, "# \t\r\n") == "" {
			continue
		}

		if len(content) <= threshold {
			chunks = append(chunks, content)
			continue
		}

		for start := 0; start < len(content); start += stride {
			end := start + threshold
			if end > len(content) {
				end = len(content)
			}
			chunks = append(chunks, content[start:end])
			if end == len(content) {
				break
			}
		}
	}
	return chunks
}
