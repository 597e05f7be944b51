package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/lsftools/lsf"
)

// exitInput, exitCorrupt and exitOutput are the exit codes from spec.md
// section 6 ("Exit codes: 0 success; 1 input error ...; 2 corrupt data; 3
// output error").
const (
	exitOK = iota
	exitInput
	exitCorrupt
	exitOutput
)

type convertError struct {
	code int
	err  error
}

func (e *convertError) Error() string { return e.err.Error() }
func (e *convertError) Unwrap() error { return e.err }

func inputError(err error) error   { return &convertError{code: exitInput, err: err} }
func corruptError(err error) error { return &convertError{code: exitCorrupt, err: err} }
func outputError(err error) error  { return &convertError{code: exitOutput, err: err} }

// exitCodeFor maps an error to one of the exit codes above, classifying
// unwrapped lsf errors by the taxonomy in spec.md section 7 when the
// command itself didn't already tag the error via convertError.
func exitCodeFor(err error) int {
	var ce *convertError
	if errors.As(err, &ce) {
		return ce.code
	}

	var (
		sig     *lsf.InvalidSignatureError
		version *lsf.UnsupportedVersionError
	)
	switch {
	case errors.As(err, &sig), errors.As(err, &version):
		return exitInput
	}

	var (
		truncated      *lsf.TruncatedError
		decompress     *lsf.DecompressionError
		corruptStrings *lsf.CorruptStringTableError
		tree           *lsf.CorruptTreeError
		unknown        *lsf.UnknownAttributeTypeError
	)
	switch {
	case errors.As(err, &truncated), errors.As(err, &decompress), errors.As(err, &corruptStrings),
		errors.As(err, &tree), errors.As(err, &unknown):
		return exitCorrupt
	}

	return exitOutput
}

// progressWriter prints progress lines (the region count read, the number
// of degraded attributes) only when stderr is an interactive terminal,
// matching cmd/distri/builder.go's build-log streaming convention.
type progressWriter struct {
	interactive bool
}

func newProgressWriter() *progressWriter {
	return &progressWriter{interactive: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())}
}

func (p *progressWriter) Printf(format string, args ...interface{}) {
	if !p.interactive {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

type verb struct {
	fn func(ctx context.Context, args []string) error
}

func funcmain() error {
	verbs := map[string]verb{
		"to-xml":    {cmdToXML},
		"to-binary": {cmdToBinary},
	}

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return inputError(fmt.Errorf("missing command"))
	}
	name, args := args[0], args[1:]
	if name == "help" || name == "-help" || name == "--help" {
		usage()
		return nil
	}

	v, ok := verbs[name]
	if !ok {
		usage()
		return inputError(fmt.Errorf("unknown command %q", name))
	}

	ctx, canc := lsf.InterruptibleContext()
	defer canc()
	defer lsf.RunAtExit()

	return v.fn(ctx, args)
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintf(os.Stderr, "lsfconv: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}
