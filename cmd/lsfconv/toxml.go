package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/lsftools/lsf"
	"github.com/lsftools/lsf/internal/lsfbin"
	"github.com/lsftools/lsf/internal/lsx"
)

const toXMLHelp = `lsfconv to-xml [-policy=tolerant|strict] <input.lsf> <output.lsx>

Converts a binary LSF resource tree to its XML (LSX) form.
`

func cmdToXML(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("to-xml", flag.ContinueOnError)
	fset.Usage = func() { fmt.Fprint(os.Stderr, toXMLHelp); fset.PrintDefaults() }
	policy := fset.String("policy", "tolerant", "attribute error policy: tolerant or strict")
	if err := fset.Parse(args); err != nil {
		return inputError(err)
	}
	if fset.NArg() != 2 {
		fset.Usage()
		return inputError(fmt.Errorf("to-xml: want exactly 2 positional arguments, got %d", fset.NArg()))
	}
	inputPath, outputPath := fset.Arg(0), fset.Arg(1)

	readerPolicy, err := parsePolicy(*policy)
	if err != nil {
		return inputError(err)
	}

	progress := newProgressWriter()

	in, err := os.Open(inputPath)
	if err != nil {
		return inputError(xerrors.Errorf("open %s: %w", inputPath, err))
	}
	defer in.Close()

	degraded := 0
	cfg := lsf.ReaderConfig{
		Policy: readerPolicy,
		OnDegradedAttribute: func(nodeName, attrKey string, reason error) {
			degraded++
			log.Printf("warning: %s.%s degraded to None: %v", nodeName, attrKey, reason)
		},
	}

	res, err := lsfbin.Read(in, cfg)
	if err != nil {
		return classifyReadError(err)
	}
	progress.Printf("read %d region(s) from %s\n", len(res.Regions), inputPath)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return outputError(xerrors.Errorf("MkdirAll: %w", err))
	}
	out, err := renameio.TempFile("", outputPath)
	if err != nil {
		return outputError(xerrors.Errorf("TempFile: %w", err))
	}
	lsf.RegisterAtExit(out.Cleanup)

	if err := lsx.Write(out, res); err != nil {
		return outputError(xerrors.Errorf("lsx.Write: %w", err))
	}
	if err := out.CloseAtomicallyReplace(); err != nil {
		return outputError(xerrors.Errorf("CloseAtomicallyReplace: %w", err))
	}

	if degraded > 0 {
		progress.Printf("%d attribute(s) degraded under the tolerant policy\n", degraded)
	}
	return nil
}

func parsePolicy(s string) (lsf.ErrorPolicy, error) {
	switch s {
	case "tolerant":
		return lsf.PolicyTolerant, nil
	case "strict":
		return lsf.PolicyStrict, nil
	default:
		return 0, fmt.Errorf("invalid -policy %q: want tolerant or strict", s)
	}
}

// classifyReadError tags a read failure as a corrupt-data exit unless it is
// one of the signature/version checks that spec.md section 6 calls out as
// input errors specifically.
func classifyReadError(err error) error {
	var sig *lsf.InvalidSignatureError
	var version *lsf.UnsupportedVersionError
	if errors.As(err, &sig) || errors.As(err, &version) {
		return inputError(err)
	}
	return corruptError(err)
}
