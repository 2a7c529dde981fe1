// gen_vm_expects generates package level wrappers around the vmTestCase
// builder methods, so that test tables may apply them as values:
//
//	vmTest("DOUBLE").apply(expectVMStack(cell.Int(6)))
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"regexp"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

type namedReader interface {
	io.ReadCloser
	Name() string
}

var (
	in  namedReader    = os.Stdin
	out io.WriteCloser = os.Stdout

	timeout  = flag.Duration("timeout", 5*time.Second, "time limit for generation and formatting")
	prefixes = flag.String("prefixes", "expect|with", "builder method name prefixes to wrap")
)

func parseFlags() {
	flag.Parse()

	args := flag.Args()
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("failed to open %v: %v", args[0], err)
		}
		args = args[1:]
		in = f
	}
	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			log.Fatalf("failed to create %v: %v", args[0], err)
		}
		out = f
	}
}

func main() {
	parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	ready := make(chan struct{})

	// generated source is piped through goimports, which adds any imports
	// that argument types need
	eg.Go(func() error {
		fmtCmd := exec.CommandContext(ctx, "goimports")
		fmtPipe, err := fmtCmd.StdinPipe()
		if err != nil {
			close(ready)
			return err
		}
		defer out.Close()
		fmtCmd.Stdout = out
		fmtCmd.Stderr = os.Stderr
		out = fmtPipe
		close(ready)
		if err := fmtCmd.Run(); err != nil {
			return fmt.Errorf("goimports failed: %w", err)
		}
		return nil
	})

	eg.Go(func() (rerr error) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ready:
		}
		defer func() {
			if cerr := in.Close(); rerr == nil {
				rerr = cerr
			}
			if cerr := out.Close(); rerr == nil {
				rerr = cerr
			}
		}()
		return generate(ctx)
	})

	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}
}

type builderMethod struct {
	prefix, what string
	params       [][]byte
}

func generate(ctx context.Context) error {
	pattern, err := regexp.Compile(`^func \(vmt vmTestCase\) (` + *prefixes + `)(\w+)\((.+?)\) vmTestCase`)
	if err != nil {
		return fmt.Errorf("invalid -prefixes: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package main\n\n// @generated from %v\n\n", in.Name())
	if args := flag.Args(); len(args) >= 2 {
		buf.WriteString("//go:generate go run scripts/gen_vm_expects.go --")
		for _, arg := range args {
			buf.WriteByte(' ')
			buf.WriteString(arg)
		}
		buf.WriteString("\n\n")
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if match := pattern.FindSubmatch(sc.Bytes()); match != nil {
			bm := builderMethod{
				prefix: string(match[1]),
				what:   string(match[2]),
				params: bytes.Split(match[3], []byte(",")),
			}
			bm.writeTo(&buf)
		}
		if buf.Len() > 0 {
			if _, err := buf.WriteTo(out); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (bm builderMethod) writeTo(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "func %vVM%v(", bm.prefix, bm.what)
	for i, param := range bm.params {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.Write(bytes.TrimSpace(param))
	}
	buf.WriteString(") func(vmTestCase) vmTestCase {\n")
	fmt.Fprintf(buf, "\treturn func(vmt vmTestCase) vmTestCase {\n\t\treturn vmt.%v%v(", bm.prefix, bm.what)
	for i, param := range bm.params {
		if i > 0 {
			buf.WriteString(", ")
		}
		fields := bytes.Fields(param)
		buf.Write(fields[0])
		if len(fields) > 1 && bytes.HasPrefix(fields[1], []byte("...")) {
			buf.WriteString("...")
		}
	}
	buf.WriteString(")\n\t}\n}\n\n")
}
