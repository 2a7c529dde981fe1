// Package fileinput reads runes sequentially through a queue of named input
// streams, keeping track of where in which stream the reader is.
package fileinput

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/cellforth/internal/runeio"
)

// Location names a line within a named input.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string {
	if loc.Name == "" {
		return fmt.Sprintf("line %v", loc.Line)
	}
	return fmt.Sprintf("%v:%v", loc.Name, loc.Line)
}

// Line is the text read so far from a single input line.
type Line struct {
	Location
	Text strings.Builder
}

func (ln *Line) String() string { return fmt.Sprintf("%v %q", ln.Location, ln.Text.String()) }

func (ln *Line) copyTo(other *Line) {
	other.Location = ln.Location
	other.Text.Reset()
	other.Text.WriteString(ln.Text.String())
}

func (ln *Line) rollTo(last *Line) {
	ln.copyTo(last)
	ln.Text.Reset()
	ln.Line++
}

// Input reads through its Queue one stream at a time, closing each one that
// is an io.Closer once exhausted. Scan is the line currently being read, Last
// the line completed most recently.
type Input struct {
	Queue []io.Reader
	Last  Line
	Scan  Line

	cur io.RuneReader
	src io.Reader
	eol bool
}

// Push adds more readers to the end of the queue.
func (in *Input) Push(rs ...io.Reader) { in.Queue = append(in.Queue, rs...) }

// Where returns the location of the rune read most recently; a line feed
// belongs to the line it ends.
func (in *Input) Where() Location { return in.Scan.Location }

// ReadRune implements io.RuneReader; io.EOF is only returned once every queued
// reader has been exhausted. A stream whose last line lacks a line feed reads
// as if it had one, so that no token spans two streams.
func (in *Input) ReadRune() (rune, int, error) {
	for {
		if in.cur == nil && !in.advance() {
			return 0, 0, io.EOF
		}
		r, n, err := in.cur.ReadRune()
		if n > 0 {
			if in.eol {
				in.eol = false
				in.Scan.rollTo(&in.Last)
			}
			if r == '\n' {
				in.eol = true
			} else {
				in.Scan.Text.WriteRune(r)
			}
			return r, n, nil
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return 0, 0, fmt.Errorf("%v: %w", in.Scan.Location, err)
		}
		unterminated := !in.eol && in.Scan.Text.Len() > 0
		in.finish()
		if unterminated {
			return '\n', 0, nil
		}
	}
}

func (in *Input) finish() {
	if in.eol || in.Scan.Text.Len() > 0 {
		in.eol = false
		in.Scan.copyTo(&in.Last)
	}
	if cl, ok := in.src.(io.Closer); ok {
		cl.Close()
	}
	in.cur, in.src = nil, nil
}

func (in *Input) advance() bool {
	if len(in.Queue) == 0 {
		return false
	}
	in.src = in.Queue[0]
	in.Queue = in.Queue[1:]
	in.cur = runeio.NewReader(in.src)
	in.Scan.Name = nameOf(in.src)
	in.Scan.Line = 1
	in.Scan.Text.Reset()
	return true
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
