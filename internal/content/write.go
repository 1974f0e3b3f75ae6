package content

import "contentkit/internal/jsonfile"

// writeContent serializes an artifact. A nil container still yields an empty
// object so absent tables produce a file.
func writeContent(path string, content any) (bool, error) {
	if content == nil {
		content = map[string]any{}
	}
	return jsonfile.Write(path, content)
}
