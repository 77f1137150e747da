package urldetector

import "regexp"

// urlPattern matches http(s) URLs in free text.
//
// The class [$-_@.&+] is a range from '$' to '_', so path, query and port
// characters (/ : ; = ? [ ] ^) are accepted along with letters and digits.
var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// FindURLs returns every URL in text in order of first occurrence.
// Duplicates are preserved, nothing is normalized or validated.
func FindURLs(text string) []string {
	if text == "" {
		return nil
	}
	return urlPattern.FindAllString(text, -1)
}

// FirstURL returns the first URL in text, ok is false when there is none
func FirstURL(text string) (url string, ok bool) {
	url = urlPattern.FindString(text)
	return url, url != ""
}
