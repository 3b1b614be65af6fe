package similarity

import (
	"fmt"
	"strings"
)

// Method names a similarity strategy as recorded in ranked output.
type Method string

const (
	MethodTFIDF Method = "TFIDF"
	MethodSBERT Method = "SBERT"
)

// ParseMethod accepts "tfidf" or "sbert" in any case.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "tfidf":
		return MethodTFIDF, nil
	case "sbert":
		return MethodSBERT, nil
	default:
		return "", fmt.Errorf("unknown similarity method %q (valid: tfidf, sbert)", s)
	}
}

// Flag returns the lower-case name used on the command line.
func (m Method) Flag() string {
	return strings.ToLower(string(m))
}
