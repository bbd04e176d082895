package frontmatter

import (
	"bytes"

	"github.com/inful/mdfp"
)

// Fingerprint returns the mdfp content fingerprint of a note. An existing
// fingerprint line inside the front matter does not feed back into the value.
func Fingerprint(content []byte) string {
	raw, body, had, err := Split(content)
	if err != nil || !had {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}

	lines := bytes.SplitAfter(raw, []byte("\n"))
	kept := make([]byte, 0, len(raw))
	prefix := []byte(mdfp.FingerprintField + ":")
	for _, line := range lines {
		if bytes.HasPrefix(bytes.TrimSpace(line), prefix) {
			continue
		}
		kept = append(kept, line...)
	}
	return mdfp.CalculateFingerprintFromParts(string(bytes.TrimRight(kept, "\r\n")), string(body))
}
