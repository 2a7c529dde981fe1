package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jcorbin/cellforth/internal/logio"
	"github.com/jcorbin/cellforth/internal/panicerr"
)

const (
	historyFile = ".cellforth_history"
	prompt      = "ok> "
)

func main() {
	var log logio.Logger
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	ctx := context.Background()

	var (
		timeout   time.Duration
		trace     bool
		memLimit  uint
		base      int
		noPrelude bool
		dump      bool
	)
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.UintVar(&memLimit, "mem-limit", 0, "enable memory limit")
	flag.IntVar(&base, "base", 10, "initial numeric base")
	flag.BoolVar(&noPrelude, "no-prelude", false, "do not define the control flow words")
	flag.BoolVar(&dump, "dump", false, "dump VM memory after running")
	flag.Parse()

	opts := []VMOption{
		WithOutput(os.Stdout),
		WithBase(base),
		WithBridge(StdBridge()),
		WithReportf(log.Leveledf("WARN")),
	}
	for _, name := range flag.Args() {
		f, err := os.Open(name)
		if err != nil {
			log.Errorf("%v", err)
			return
		}
		opts = append(opts, WithInput(f))
	}
	if trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}
	if memLimit != 0 {
		opts = append(opts, WithMemLimit(memLimit))
	}
	if noPrelude {
		opts = append(opts, WithoutPrelude())
	}

	var vm *VM
	if term.IsTerminal(int(os.Stdin.Fd())) {
		repl := newREPL(func() []string { return vm.Words() })
		defer repl.Close()
		opts = append(opts, WithInput(repl))
	} else {
		opts = append(opts, WithInput(os.Stdin))
	}
	vm = New(opts...)

	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := vm.Run(ctx)
	if trace && panicerr.IsPanic(err) {
		log.Printf("TRACE", "%s", panicerr.PanicStack(err))
	}
	log.ErrorIf(err)

	if dump {
		lw := logio.Writer{Logf: log.Leveledf("DUMP")}
		vmDumper{vm: vm, out: &lw}.dump()
		lw.Close()
	}
	log.ErrorIf(vm.Close())
}

// repl is an input stream that prompts for a line at a time, with history
// and completion of dictionary words.
type repl struct {
	*liner.State
	histPath string
	buf      strings.Reader
	closed   bool
}

func newREPL(words func() []string) *repl {
	r := &repl{State: liner.NewLiner()}
	r.SetCtrlCAborts(true)
	r.SetWordCompleter(func(line string, pos int) (head string, completions []string, tail string) {
		head, tail = line[:pos], line[pos:]
		i := strings.LastIndexAny(head, " \t") + 1
		head, word := head[:i], head[i:]
		for _, name := range words() {
			if strings.HasPrefix(name, word) {
				completions = append(completions, name)
			}
		}
		return head, completions, tail
	})

	if home, err := os.UserHomeDir(); err == nil {
		r.histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(r.histPath); err == nil {
			r.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *repl) Name() string { return "<stdin>" }

func (r *repl) Read(p []byte) (int, error) {
	for r.buf.Len() == 0 {
		line, err := r.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		} else if err != nil {
			return 0, io.EOF
		}
		if strings.TrimSpace(line) != "" {
			r.AppendHistory(line)
		}
		r.buf.Reset(line + "\n")
	}
	return r.buf.Read(p)
}

// Close saves history and restores the terminal; input calls it once
// exhausted, and main again on exit.
func (r *repl) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.histPath != "" {
		if f, err := os.Create(r.histPath); err == nil {
			r.WriteHistory(f)
			f.Close()
		}
	}
	return r.State.Close()
}
