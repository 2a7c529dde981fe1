package runeio

import (
	"io"
	"unicode/utf8"
)

// WriteANSIRune writes r to w, see AppendANSI.
func WriteANSIRune(w io.Writer, r rune) (n int, err error) {
	var tmp [utf8.UTFMax]byte
	return w.Write(AppendANSI(tmp[:0], r))
}

// WriteANSIString writes s to w in one write, see AppendANSI.
func WriteANSIString(w io.Writer, s string) (n int, err error) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		buf = AppendANSI(buf, r)
	}
	return w.Write(buf)
}

// AppendANSI appends the terminal encoding of r to buf:
//   - NEL becomes the more conventional \r\n
//   - other C1 controls take their 7-bit escape form, e.g. "\x1b[" for CSI
//   - everything else is utf8, invalid runes becoming utf8.RuneError
func AppendANSI(buf []byte, r rune) []byte {
	switch {
	case r >= 0 && r < utf8.RuneSelf:
		return append(buf, byte(r))
	case r == 0x85:
		return append(buf, '\r', '\n')
	case r >= 0x80 && r <= 0x9f:
		return append(buf, 0x1b, byte(r^0xc0))
	}
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	return append(buf, tmp[:n]...)
}
