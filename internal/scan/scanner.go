// Package scan reads whitespace delimited tokens and parses numeric literals.
package scan

import (
	"io"
	"strings"
	"unicode"
)

// CommentRune starts a line comment when it begins a token.
const CommentRune = '#'

// Scanner reads tokens one rune at a time from In.
//
// A token is a maximal run of non-space runes. A CommentRune at the start of
// a token discards the remainder of its line. Exhausting In with no pending
// token returns io.EOF, which callers should treat as a shutdown request
// rather than as a failure.
type Scanner struct {
	In io.RuneReader

	sb strings.Builder
}

// Next returns the next token.
func (sc *Scanner) Next() (string, error) {
	r, err := sc.skip()
	if err != nil {
		return "", err
	}

	sc.sb.Reset()
	sc.sb.WriteRune(r)
	for {
		r, _, err := sc.In.ReadRune()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		} else if isSpace(r) {
			break
		}
		sc.sb.WriteRune(r)
	}
	return sc.sb.String(), nil
}

// Key reads a single raw rune, bypassing tokenization.
func (sc *Scanner) Key() (rune, error) {
	r, _, err := sc.In.ReadRune()
	return r, err
}

// Line reads raw runes through the next line feed, returning them without it.
func (sc *Scanner) Line() (string, error) {
	sc.sb.Reset()
	for {
		r, _, err := sc.In.ReadRune()
		if err == io.EOF && sc.sb.Len() > 0 {
			break
		} else if err != nil {
			return "", err
		} else if r == '\n' {
			break
		}
		sc.sb.WriteRune(r)
	}
	return sc.sb.String(), nil
}

// skip discards space and comments, returning the first rune of a token.
func (sc *Scanner) skip() (rune, error) {
	for {
		r, _, err := sc.In.ReadRune()
		if err != nil {
			return 0, err
		}
		if r == CommentRune {
			if err := sc.skipLine(); err != nil {
				return 0, err
			}
			continue
		}
		if !isSpace(r) {
			return r, nil
		}
	}
}

func (sc *Scanner) skipLine() error {
	for {
		r, _, err := sc.In.ReadRune()
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
