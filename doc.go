/* Package main: cellforth, a Forth-like indirect threaded interpreter

Every address of memory, and every slot of both stacks, holds one tagged cell:
an Int, Long, BigInt, Decimal, Float, Str, Prim, Addr, Object, or Nil.
Arithmetic promotes its operands to a common kind, so that 1 2.5 + is the
decimal 3.5, while 7 2 / stays the int 3.

Memory layout

The first cells hold the system variables, each an Int:

	@0   HERE    address of the next free cell
	@1   LATEST  entry address of the newest word
	@2   STATE   0 while interpreting, 1 while compiling
	@3   BASE    numeric base for parsing and printing
	@8           address of the halt word, which every outer execution
	             returns through
	@9           the halt word itself

The dictionary starts at address 16: first the primitives, one Prim cell
apiece, then words defined by the prelude and by the user. A colon definition
is a DOCOL code cell followed by the addresses of the words it calls; LIT
cells are followed by a literal, BRANCH and 0BRANCH cells by an offset
relative to that offset cell, and the last cell is the address of EXIT.

Interpreting

Input is read as whitespace separated tokens. A # starting a token comments
out the rest of its line, and ( comments through the next ). Each token is
looked up in the dictionary, and then:
  - executed, when interpreting or when the word is IMMEDIATE
  - otherwise compiled as a reference to the word
Tokens that are not words are parsed as numbers in BASE; tokens that are not
numbers either are taken as strings, with a warning. Either way the literal is
pushed when interpreting, or compiled after LIT when compiling.

An error evaluating a token is reported along with its input location, and
interpretation continues with the next token.

Foreign calls

CALL ( args... target descriptor -- result ) calls into Go through the
configured Bridge. A descriptor like "strings/Repeat/2" names a type, a
member, and how many arguments to pass; see internal/ffi.

*/
package main
