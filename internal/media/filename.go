package media

import (
	"path"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedDashes      = regexp.MustCompile(`-{2,}`)
)

// SanitizeFilename makes a remote basename safe to use as a stored filename.
// Whitespace and unsafe characters become dashes; an empty result becomes
// "file".
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	name = strings.Join(strings.Fields(name), "-")
	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = repeatedDashes.ReplaceAllString(name, "-")
	name = strings.Trim(name, ".-_")

	if name == "" {
		return "file"
	}
	return name
}

// TitleFromFilename strips the trailing extension (everything from the last
// '.') to produce a display title. A name whose last dot is its final
// character is returned unchanged.
func TitleFromFilename(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return name
	}
	return name[:idx]
}

// ReplaceExtension swaps the extension of name for ext (which includes the dot)
func ReplaceExtension(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
