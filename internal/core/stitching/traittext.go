package stitching

import "strings"

// ExtractTraitText scans page texts in order for the first line containing
// heading and returns the following lines joined by single spaces, stopping at
// a blank line or a line ending in a colon. Only the page holding the first
// heading is read past it. found is false when no page has the heading.
func ExtractTraitText(pages []string, heading string) (text string, found bool) {
	if heading == "" {
		return "", false
	}
	for _, page := range pages {
		if !strings.Contains(page, heading) {
			continue
		}
		lines := strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n")
		for i, line := range lines {
			if !strings.Contains(line, heading) {
				continue
			}
			var collected []string
			for _, next := range lines[i+1:] {
				next = strings.TrimSpace(next)
				if next == "" || strings.HasSuffix(next, ":") {
					break
				}
				collected = append(collected, next)
			}
			return strings.Join(collected, " "), true
		}
	}
	return "", false
}
