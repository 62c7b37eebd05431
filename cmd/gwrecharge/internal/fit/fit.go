// Package fit implements the `gwrecharge fit` subcommand: identify
// recession segments for a well and fit a master recession curve (C3+C5).
package fit

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caeser-uofm/gwrecharge/cmd/gwrecharge/internal/wiring"
	"github.com/caeser-uofm/gwrecharge/curvefit"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// Input is the JSON request schema. When ManualParams is non-nil, the
// curve is fit with FitManual using those parameters; otherwise FitAuto
// runs the full initial-guess sweep.
type Input struct {
	WellID       string                   `json:"well_id"`
	CurveType    string                   `json:"curve_type"`
	ManualParams *seriesmodel.CurveParams `json:"manual_params,omitempty"`
	ConfigPath   string                   `json:"config_path,omitempty"`
	DSN          string                   `json:"dsn"`
	CSVDir       string                   `json:"csv_dir"`
}

// Output is the JSON response schema.
type Output struct {
	CurveID      string  `json:"curve_id,omitempty"`
	RSquared     float64 `json:"r_squared"`
	RMSE         float64 `json:"rmse"`
	FitBand      string  `json:"fit_band,omitempty"`
	SegmentCount int     `json:"segment_count"`
	IsManual     bool    `json:"is_manual"`
	Error        string  `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
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
	curveType := seriesmodel.CurveType(strings.ToLower(strings.TrimSpace(input.CurveType)))
	if curveType == "" {
		curveType = seriesmodel.CurveExponential
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

	curve, err := controller.FitCurve(ctx, input.WellID, segs, curveType, input.ManualParams, curvefit.DefaultSolverConfig())
	if err != nil {
		return writeError(stdout, err.Error())
	}

	out := Output{
		CurveID:      curve.ID.String(),
		RSquared:     curve.RSquared,
		RMSE:         curve.RMSE,
		FitBand:      seriesmodel.FitBand(curve.RSquared),
		SegmentCount: curve.RecessionSegmentsCount,
		IsManual:     curve.IsManual,
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
	fmt.Fprintln(w, "Usage: gwrecharge fit [-input <path>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reads a JSON request ({well_id, curve_type, manual_params, dsn, csv_dir,")
	fmt.Fprintln(w, "config_path}) from -input or stdin, identifies recession segments, fits a")
	fmt.Fprintln(w, "curve (auto unless manual_params is set), and writes a JSON summary to")
	fmt.Fprintln(w, "stdout.")
}
