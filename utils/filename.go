package utils

import "regexp"

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-_.]`)

// CleanEmail makes an email safe to embed in a filename.
func CleanEmail(email string) string {
	if email == "" {
		email = "unknown"
	}
	return unsafeFilenameChars.ReplaceAllString(email, "_")
}
