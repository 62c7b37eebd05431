// Command gwrecharge is the CLI entrypoint wiring the groundwater-recharge
// core (AnalysisController) to a CSV reading source and a Postgres store.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caeser-uofm/gwrecharge/cmd/gwrecharge/internal/fit"
	"github.com/caeser-uofm/gwrecharge/cmd/gwrecharge/internal/mrc"
	"github.com/caeser-uofm/gwrecharge/cmd/gwrecharge/internal/rise"
	"github.com/caeser-uofm/gwrecharge/cmd/gwrecharge/internal/segments"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "rise":
		return rise.Run(args[1:], stdin, stdout, stderr)
	case "mrc":
		return mrc.Run(args[1:], stdin, stdout, stderr)
	case "fit":
		return fit.Run(args[1:], stdin, stdout, stderr)
	case "segments":
		return segments.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: gwrecharge <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  segments  Identify recession segments for a well (C3)")
	fmt.Fprintln(w, "  fit       Fit a master recession curve from segments (C5)")
	fmt.Fprintln(w, "  rise      Run the RISE method end to end (C6, C8, C9)")
	fmt.Fprintln(w, "  mrc       Run the MRC method end to end (C7, C8, C9)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `gwrecharge <command> -h` for command-specific help.")
}
