package csvexport

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	umlautFolder    = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "Ä", "Ae", "Ö", "Oe", "Ü", "Ue", "ß", "ss")
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9 _-]`)
)

// PersonDirName derives the per-person output directory from a source file name.
func PersonDirName(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := strings.ReplaceAll(base, "_", " ")
	name = umlautFolder.Replace(name)
	name = disallowedChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		return "document"
	}
	return name
}
