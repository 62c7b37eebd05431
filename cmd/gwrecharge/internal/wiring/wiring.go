// Package wiring assembles the AnalysisController from CLI flags, shared
// across the gwrecharge subcommands.
package wiring

import (
	"context"

	"github.com/caeser-uofm/gwrecharge/analysis"
	"github.com/caeser-uofm/gwrecharge/csvsource"
	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/obslog"
	"github.com/caeser-uofm/gwrecharge/repository"
)

// Options are the flags every subcommand accepts for building a Controller.
type Options struct {
	ConfigPath string
	DSN        string
	CSVDir     string
}

// Build opens the store and constructs a Controller. The returned close
// func flushes the logger and closes the database connection; callers
// should defer it.
func Build(ctx context.Context, opts Options) (*analysis.Controller, func(), error) {
	cfg := gwconfig.Default()
	if opts.ConfigPath != "" {
		loaded, err := gwconfig.Load(opts.ConfigPath)
		if err != nil {
			return nil, func() {}, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, func() {}, err
	}

	log, err := obslog.New()
	if err != nil {
		return nil, func() {}, err
	}

	store, err := repository.Open(ctx, opts.DSN, log)
	if err != nil {
		_ = log.Sync()
		return nil, func() {}, err
	}

	closeFn := func() {
		_ = store.Close()
		_ = log.Sync()
	}

	c := &analysis.Controller{
		Store:  store,
		Log:    log,
		Config: cfg,
		Source: csvsource.Source{Dir: opts.CSVDir},
	}
	return c, closeFn, nil
}
