package normalize

import (
	"regexp"
	"strings"
)

// Code-fence markers the model wraps JSON in despite being told not to.
var fenceMarker = regexp.MustCompile("(?i)```(?:json)?")

// StripFences removes leading, trailing and embedded markdown code-fence
// markers from raw model output.
func StripFences(text string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
}

// ExtractObject locates the first '{' and the last '}' in already-cleaned
// text and returns the enclosed candidate JSON object. ok is false when
// no plausible object exists, in which case the caller treats the whole
// text as unstructured prose.
func ExtractObject(cleaned string) (string, bool) {
	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last == -1 || last <= first {
		return "", false
	}
	return cleaned[first : last+1], true
}
