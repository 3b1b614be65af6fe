// Package compose derives the text that is vectorized for each paper.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/paperrank/internal/paper"
)

// ErrInvalidMode indicates an unknown text-field mode.
var ErrInvalidMode = errors.New("invalid text field")

// Mode selects which paper fields make up the composed text.
type Mode string

const (
	ModeTitle    Mode = "title"
	ModeAbstract Mode = "abstract"
	// ModeCombined repeats the title to weight it above the abstract.
	ModeCombined Mode = "combined"
)

// DefaultMode is used when no text field is configured.
const DefaultMode = ModeCombined

// Modes lists every accepted mode.
var Modes = []Mode{ModeTitle, ModeAbstract, ModeCombined}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: title, abstract, combined)", ErrInvalidMode, s)
}

// Text composes the text for a single paper.
func (m Mode) Text(p paper.Paper) (string, error) {
	switch m {
	case ModeTitle:
		return p.Title, nil
	case ModeAbstract:
		return p.Abstract, nil
	case ModeCombined:
		return strings.Join([]string{p.Title, p.Title, p.Abstract}, " "), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
}

// Compose returns one text per paper, in input order.
func Compose(papers []paper.Paper, mode Mode) ([]string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	texts := make([]string, len(papers))
	for i, p := range papers {
		text, err := mode.Text(p)
		if err != nil {
			return nil, err
		}
		texts[i] = text
	}
	return texts, nil
}
