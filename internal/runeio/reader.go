package runeio

import (
	"bufio"
	"io"
)

// NewReader returns r itself if it already reads runes, or else r behind a
// bufio.Reader.
func NewReader(r io.Reader) io.RuneReader {
	if rr, ok := r.(io.RuneReader); ok {
		return rr
	}
	return bufio.NewReader(r)
}
