// mfrcap replays recorded simulator traffic through the MFR receive path and
// can synthesize captures from a scenario.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
)

const usage = `usage:
  mfrcap replay   -pcap <file> [-port 9870]
  mfrcap generate -out <file> [-scenario <file.yaml>] [-ticks 100] [-port 9870] [-legacy] [-per-packet 30]`

func main() {
	logs.ConfigureRuntime()
	observability.InitLogger("mfrcap")
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	_ = logs.Close()
	os.Exit(code)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	var err error
	switch args[0] {
	case "replay":
		err = runReplay(args[1:], stdout)
	case "generate":
		err = runGenerate(args[1:], stdout)
	default:
		fmt.Fprintf(stderr, "mfrcap: unknown command %q\n%s\n", args[0], usage)
		return 2
	}
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "mfrcap: %v\n", err)
		return 1
	}
	return 0
}
