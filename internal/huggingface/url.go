package huggingface

import (
	"fmt"
	"regexp"
)

// Kind is the type of hub repository a URL points at.
type Kind string

const (
	KindDataset Kind = "dataset"
	KindSpace   Kind = "space"
)

var repoURLPattern = regexp.MustCompile(`huggingface\.co/(datasets|spaces)/([^/]+/[^/?#]+)`)

// ParseURL extracts the repository kind and "owner/name" from a hub URL.
func ParseURL(rawURL string) (Kind, string, error) {
	m := repoURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", fmt.Errorf("not a Hugging Face dataset or space URL: %q", rawURL)
	}
	kind := KindDataset
	if m[1] == "spaces" {
		kind = KindSpace
	}
	return kind, m[2], nil
}
