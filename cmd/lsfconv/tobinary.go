package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/lsftools/lsf"
	"github.com/lsftools/lsf/internal/lsfbin"
	"github.com/lsftools/lsf/internal/lsx"
)

const toBinaryHelp = `lsfconv to-binary [-version=7] [-compression=lz4|zlib|zstd|none] [-level=default|fast|best] <input.lsx> <output.lsf>

Converts an XML (LSX) resource tree to its binary (LSF) form.
`

func cmdToBinary(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("to-binary", flag.ContinueOnError)
	fset.Usage = func() { fmt.Fprint(os.Stderr, toBinaryHelp); fset.PrintDefaults() }
	version := fset.Uint("version", lsfbin.DefaultWriteVersion, "LSF format version to emit (6 or 7)")
	compression := fset.String("compression", "lz4", "compression backend: lz4, zlib, zstd, or none")
	level := fset.String("level", "default", "compression level: default, fast, or best")
	if err := fset.Parse(args); err != nil {
		return inputError(err)
	}
	if fset.NArg() != 2 {
		fset.Usage()
		return inputError(fmt.Errorf("to-binary: want exactly 2 positional arguments, got %d", fset.NArg()))
	}
	inputPath, outputPath := fset.Arg(0), fset.Arg(1)

	method, err := parseMethod(*compression)
	if err != nil {
		return inputError(err)
	}
	lvl, err := parseLevel(*level)
	if err != nil {
		return inputError(err)
	}

	progress := newProgressWriter()

	in, err := os.Open(inputPath)
	if err != nil {
		return inputError(xerrors.Errorf("open %s: %w", inputPath, err))
	}
	defer in.Close()

	res, err := lsx.Read(in, lsf.ReaderConfig{Policy: lsf.PolicyStrict})
	if err != nil {
		return corruptError(xerrors.Errorf("lsx.Read: %w", err))
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

	cfg := lsfbin.WriterConfig{
		Version: uint32(*version),
		Method:  method,
		Level:   lvl,
	}
	if err := lsfbin.Write(out, res, cfg); err != nil {
		return outputError(xerrors.Errorf("lsfbin.Write: %w", err))
	}
	if err := out.CloseAtomicallyReplace(); err != nil {
		return outputError(xerrors.Errorf("CloseAtomicallyReplace: %w", err))
	}

	return nil
}

func parseMethod(s string) (lsfbin.Method, error) {
	switch s {
	case "none":
		return lsfbin.MethodNone, nil
	case "zlib":
		return lsfbin.MethodZlib, nil
	case "lz4":
		return lsfbin.MethodLZ4, nil
	case "zstd":
		return lsfbin.MethodZstd, nil
	default:
		return 0, fmt.Errorf("invalid -compression %q: want none, zlib, lz4, or zstd", s)
	}
}

func parseLevel(s string) (lsfbin.Level, error) {
	switch s {
	case "default":
		return lsfbin.LevelDefault, nil
	case "fast":
		return lsfbin.LevelFast, nil
	case "best":
		return lsfbin.LevelBest, nil
	default:
		return 0, fmt.Errorf("invalid -level %q: want default, fast, or best", s)
	}
}
