package main

import (
	"fmt"
	"os"
)

const topLevelHelp = `lsfconv <command> [-flags] <args>

Converts a game resource tree between its compact binary form (LSF) and its
verbose XML form (LSX).

Commands:
	to-xml     convert an LSF file to LSX
	to-binary  convert an LSX file to LSF

Use lsfconv <command> -help for flag documentation on a specific command.
`

func usage() {
	fmt.Fprint(os.Stderr, topLevelHelp)
}
