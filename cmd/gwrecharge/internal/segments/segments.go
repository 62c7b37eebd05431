// Package segments implements the `gwrecharge segments` subcommand:
// identify_segments (C2+C3) for manual review before fitting.
package segments

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caeser-uofm/gwrecharge/cmd/gwrecharge/internal/wiring"
)

// Input is the JSON request schema.
type Input struct {
	WellID     string `json:"well_id"`
	ConfigPath string `json:"config_path,omitempty"`
	DSN        string `json:"dsn"`
	CSVDir     string `json:"csv_dir"`
}

// SegmentSummary is one recession segment in the response.
type SegmentSummary struct {
	StartTS       string  `json:"start_ts"`
	EndTS         string  `json:"end_ts"`
	DurationDays  int     `json:"duration_days"`
	StartLevel    float64 `json:"start_level"`
	EndLevel      float64 `json:"end_level"`
	RecessionRate float64 `json:"recession_rate"`
	Quality       float64 `json:"quality"`
}

// Output is the JSON response schema.
type Output struct {
	Segments []SegmentSummary `json:"segments,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("segments", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if unset, reads stdin)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	inputBytes, err := readInput(stdin, strings.TrimSpace(*inputPath))
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}

	var input Input
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
	}
	if input.WellID == "" {
		return writeError(stdout, "well_id is required")
	}

	ctx := context.Background()
	controller, closeFn, err := wiring.Build(ctx, wiring.Options{
		ConfigPath: input.ConfigPath,
		DSN:        input.DSN,
		CSVDir:     input.CSVDir,
	})
	if err != nil {
		return writeError(stdout, err.Error())
	}
	defer closeFn()

	segs, err := controller.IdentifySegments(ctx, input.WellID, controller.Config)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	out := Output{Segments: make([]SegmentSummary, 0, len(segs))}
	for _, seg := range segs {
		out.Segments = append(out.Segments, SegmentSummary{
			StartTS:       seg.StartTS.Format("2006-01-02"),
			EndTS:         seg.EndTS.Format("2006-01-02"),
			DurationDays:  seg.DurationDays,
			StartLevel:    seg.StartLevel,
			EndLevel:      seg.EndLevel,
			RecessionRate: seg.RecessionRate,
			Quality:       seg.Quality,
		})
	}
	outputBytes, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeError(stdout io.Writer, msg string) int {
	outputBytes, _ := json.Marshal(Output{Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: gwrecharge segments [-input <path>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reads a JSON request ({well_id, dsn, csv_dir, config_path}) from -input or")
	fmt.Fprintln(w, "stdin, identifies recession segments, and writes them as JSON to stdout.")
}
