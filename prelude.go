package main

import (
	"bytes"
	"io"
)

// preludeSource defines the control flow words in terms of the branch
// primitives; it is read before any other input unless WithoutPrelude is
// given.
var preludeSource = prelude{}

type prelude struct{}

func (prelude) Name() string { return "prelude.fs" }

func (p prelude) reader() io.Reader {
	var buf bytes.Buffer
	p.WriteTo(&buf)
	return namedReader{&buf, p.Name()}
}

func (prelude) WriteTo(w io.Writer) (n int64, err error) {
	var buf bytes.Buffer
	line := func(parts ...string) {
		if err != nil {
			return
		}
		for _, s := range parts {
			buf.WriteString(s)
		}
		buf.WriteByte('\n')
		var m int64
		m, err = buf.WriteTo(w)
		n += m
	}

	// IF compiles a 0BRANCH with a placeholder offset, leaving the address of
	// the placeholder for THEN to patch with the distance to HERE.
	line(`: IF IMMEDIATE`,
		` ['] 0BRANCH ,`,
		` HERE @ 0 , ;`)
	line(`: THEN IMMEDIATE`,
		` DUP HERE @ SWAP -`, // offset from the placeholder to HERE
		` SWAP ! ;`)
	line(`: ELSE IMMEDIATE`,
		` ['] BRANCH ,`,
		` HERE @ 0 ,`, // placeholder for THEN
		` SWAP`,       // patch the IF placeholder to land after it
		` DUP HERE @ SWAP - SWAP ! ;`)

	// Loops leave the address to branch back to on the stack.
	line(`: BEGIN IMMEDIATE HERE @ ;`)
	line(`: UNTIL IMMEDIATE ['] 0BRANCH , HERE @ - , ;`)
	line(`: AGAIN IMMEDIATE ['] BRANCH , HERE @ - , ;`)
	line(`: WHILE IMMEDIATE ['] 0BRANCH , HERE @ 0 , ;`)
	line(`: REPEAT IMMEDIATE`,
		` ['] BRANCH , SWAP HERE @ - ,`, // back to BEGIN
		` DUP HERE @ SWAP - SWAP ! ;`)  // patch WHILE to exit here

	// ( comments run through the next close paren.
	line(`: ( IMMEDIATE BEGIN KEY 41 = UNTIL ;`)

	line(`: VARIABLE CREATE 0 , ;`)

	return n, err
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

// NamedReader gives r a name, as reported in input locations.
func NamedReader(name string, r io.Reader) io.Reader { return namedReader{r, name} }
