package stage

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// SecureFilename reduces a client filename to a flat, ASCII-only name safe to
// join onto a directory. Separators become underscores, anything outside
// [A-Za-z0-9_.-] is dropped and leading/trailing dots and underscores are
// trimmed, so "../../etc/passwd" becomes "etc_passwd".
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	ascii := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] < 0x80 {
			ascii = append(ascii, name[i])
		}
	}
	name = string(ascii)

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// StagedName is SecureFilename with a guaranteed ".<ext>" suffix. Names that
// sanitise to nothing, or lose their extension, become "upload.<ext>".
func StagedName(original, ext string) string {
	name := SecureFilename(original)
	if name == "" || !strings.EqualFold(filepath.Ext(name), "."+ext) {
		return "upload." + ext
	}
	return name
}
