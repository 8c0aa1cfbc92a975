package harvest

import "strings"

// HasCaptcha reports whether content contains the captcha marker.
// An empty marker never matches.
func HasCaptcha(content, marker string) bool {
	return marker != "" && strings.Contains(content, marker)
}
