package common

import (
	"regexp"
	"strings"
)

// invalidFolderChars matches characters that are not legal in folder names
// on common filesystems.
var invalidFolderChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFolderName converts a worksheet tab name to a valid folder name.
// Invalid filename characters are removed and spaces become underscores.
func SanitizeFolderName(name string) string {
	name = invalidFolderChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.TrimSpace(name)
}
