package http

import "strings"

// ParseHeaders converts a raw response header block into a map.
// The status line is discarded, each remaining line holds one header split
// on its first colon, and a repeated header keeps its last value.
func ParseHeaders(block string) map[string]string {
	headers := make(map[string]string)

	lines := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return headers
	}
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}
