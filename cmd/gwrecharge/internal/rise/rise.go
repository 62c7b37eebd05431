// Package rise implements the `gwrecharge rise` subcommand: run_rise end
// to end against a CSV reading source and persist the result.
package rise

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

// Output is the JSON response schema.
type Output struct {
	CalculationID   string  `json:"calculation_id,omitempty"`
	TotalRechargeIn float64 `json:"total_recharge_in"`
	AnnualRateInYr  float64 `json:"annual_rate_in_per_yr"`
	NumEvents       int     `json:"num_events"`
	NumYears        int     `json:"num_water_years"`
	Error           string  `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rise", flag.ContinueOnError)
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

	calc, err := controller.RunRise(ctx, input.WellID, controller.Config)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	out := Output{
		CalculationID:   calc.ID.String(),
		TotalRechargeIn: calc.TotalRechargeIn,
		AnnualRateInYr:  calc.AnnualRateInYr,
		NumEvents:       len(calc.Events),
		NumYears:        len(calc.Summaries),
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
	fmt.Fprintln(w, "Usage: gwrecharge rise [-input <path>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reads a JSON request ({well_id, dsn, csv_dir, config_path}) from -input or")
	fmt.Fprintln(w, "stdin, runs the RISE method, and writes a JSON summary to stdout.")
}
