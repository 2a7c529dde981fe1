package runeio

import (
	"errors"
	"strconv"
	"strings"
)

// controlNames are the classic ASCII control mnemonics, indexed by rune.
var controlNames = [32]string{
	"NUL", "SOH", "STX", "ETX", "EOT", "ENQ", "ACK", "BEL",
	"BS", "HT", "NL", "VT", "NP", "CR", "SO", "SI",
	"DLE", "DC1", "DC2", "DC3", "DC4", "NAK", "SYN", "ETB",
	"CAN", "EM", "SUB", "ESC", "FS", "GS", "RS", "US",
}

// ControlWords maps control mnemonics like "<ESC>" or "<esc>", and caret
// forms like "^[", to runes; "<SP>" and "<DEL>" are included.
var ControlWords = make(map[string]rune, 3*34)

func init() {
	add := func(name string, r rune) {
		ControlWords["<"+strings.ToUpper(name)+">"] = r
		ControlWords["<"+strings.ToLower(name)+">"] = r
		if caret := CaretForm(r); caret != "" {
			ControlWords[caret] = r
		}
	}
	for r, name := range controlNames {
		add(name, rune(r))
	}
	add("SP", 0x20)
	add("DEL", 0x7f)
}

// CaretForm computes the ^-escaped printable form of a C0 control rune.
func CaretForm(r rune) string {
	if r < 0x20 || r == 0x7f {
		return "^" + string(r^0x40)
	}
	return ""
}

var errInvalidRune = errors.New(`rune literal must be "^X" "<NAME>" or 'X'`)

// UnquoteRune parses a character literal token: a control mnemonic like
// <ESC>, a caret form like ^[, or a quoted Go character like 'x' or '\n'.
func UnquoteRune(token string) (rune, error) {
	if r, defined := ControlWords[token]; defined {
		return r, nil
	}

	if len(token) < 3 || token[0] != '\'' || token[len(token)-1] != '\'' {
		return 0, errInvalidRune
	}
	value, _, tail, err := strconv.UnquoteChar(token[1:], '\'')
	if err != nil {
		return 0, err
	}
	if tail != "'" {
		return 0, errInvalidRune
	}
	return value, nil
}
