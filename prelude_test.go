package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/cellforth/internal/cell"
)

func Test_prelude(t *testing.T) {
	vmTestCases{
		vmTest("if then").
			withInput(`: ABS DUP 0 < IF NEGATE THEN ; -5 ABS 3 ABS 2.5 NEGATE ABS`).
			expectStackFormat("int 5", "int 3", "decimal 2.5"),
		vmTest("if else then").
			withInput(`: SIGN 0 < IF -1 ELSE 1 THEN ; -2 SIGN 2 SIGN`).
			expectStack(cell.Int(-1), cell.Int(1)),
		vmTest("only numeric zero is false").
			withInput(`: TRUTHY IF 1 ELSE 0 THEN ; 0 TRUTHY 0.0 TRUTHY WORD x TRUTHY`).
			expectStack(cell.Int(0), cell.Int(0), cell.Int(1)),
		vmTest("begin until").
			withInput(`: COUNTDOWN BEGIN DUP . 1 - DUP 0= UNTIL DROP ; 3 COUNTDOWN`).
			expectOutput("3 2 1 ").
			expectStack(),
		vmTest("begin while repeat").
			withInput(`: DOWN BEGIN DUP WHILE DUP . 1 - REPEAT DROP ; 3 DOWN 0 DOWN`).
			expectOutput("3 2 1 ").
			expectStack(),
		vmTest("nested loops").
			withInput(lines(
				`: ROW BEGIN DUP WHILE 42 EMIT 1 - REPEAT DROP ;`,
				`: TRI BEGIN DUP WHILE DUP ROW CR 1 - REPEAT DROP ;`,
				`3 TRI`,
			)).
			expectOutput(lines(
				`***`,
				`**`,
				`*`,
			)),
		vmTest("paren comments").
			withInput(lines(
				`1 ( two`,
				`three ) 4`,
				`: FIVE ( -- n ) 5 ; FIVE`,
			)).
			expectStack(cell.Int(1), cell.Int(4), cell.Int(5)).
			expectWord("FIVE", ": FIVE 5 ;"),
		vmTest("variable").
			withInput(`VARIABLE V V @ 5 V ! V @ 3 V +! V @`).
			expectStack(cell.Int(0), cell.Int(5), cell.Int(8)).
			expectWord("V", "CREATE V 8 ,"),
		vmTest("see if").
			withInput(`: ABS DUP 0 < IF NEGATE THEN ; SEE ABS`).
			expectOutput(": ABS DUP 0 < 0BRANCH(2) NEGATE ;\n"),
		vmTest("see loop").
			withInput(`: SPIN BEGIN AGAIN ; SEE SPIN`).
			expectOutput(": SPIN BRANCH(-1) ;\n"),
	}.run(t)
}

func Test_prelude_source(t *testing.T) {
	var sb strings.Builder
	n, err := preludeSource.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)
	assert.True(t, strings.HasPrefix(sb.String(), ": IF IMMEDIATE"), "expected IF first")
	for _, name := range []string{"IF", "THEN", "ELSE", "BEGIN", "UNTIL", "AGAIN", "WHILE", "REPEAT", "(", "VARIABLE"} {
		assert.Contains(t, sb.String(), ": "+name+" ", "expected %v definition", name)
	}
}
