// Package analysis implements the AnalysisController (C10): the pipeline
// that composes preprocessing, detection/fitting, computation, aggregation,
// and persistence behind a handful of caller-facing operations.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/aggregate"
	"github.com/caeser-uofm/gwrecharge/curvefit"
	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/mrc"
	"github.com/caeser-uofm/gwrecharge/obslog"
	"github.com/caeser-uofm/gwrecharge/preprocess"
	"github.com/caeser-uofm/gwrecharge/recession"
	"github.com/caeser-uofm/gwrecharge/repository"
	"github.com/caeser-uofm/gwrecharge/rise"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// Store is the subset of *repository.Store the controller depends on,
// narrowed to an interface so callers can substitute a fake in tests
// without a live Postgres connection.
type Store interface {
	SaveCurve(ctx context.Context, curve seriesmodel.Curve, segments []seriesmodel.RecessionSegment) (uuid.UUID, error)
	GetCurveDetails(ctx context.Context, curveID uuid.UUID) (seriesmodel.Curve, error)
	SaveCalculation(ctx context.Context, calc seriesmodel.Calculation, events []seriesmodel.RechargeEvent, summaries []seriesmodel.YearlySummary) (uuid.UUID, error)
}

var _ Store = (*repository.Store)(nil)

// Controller composes the C1-C9 components into the C10 operations. It
// holds its collaborators explicitly (Design Note §9: "global/singleton
// state... become explicit collaborators") instead of package-level state.
type Controller struct {
	Store  Store
	Log    *obslog.Logger
	Config gwconfig.Config
	Source seriesmodel.ReadingSource
}

func (c *Controller) logger() *obslog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return obslog.NewNop()
}

func checkCancelled(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return gwerrors.Newf(gwerrors.Cancelled, "analysis cancelled after %s", stage).WithHint(err.Error())
	}
	return nil
}

// loadAndPreprocess fetches raw readings and runs C2 over them.
func (c *Controller) loadAndPreprocess(ctx context.Context, wellID string, cfg gwconfig.Config) (seriesmodel.Series, error) {
	raw, err := c.Source.FetchReadings(ctx, wellID, nil, nil)
	if err != nil {
		return seriesmodel.Series{}, gwerrors.New(gwerrors.RepositoryError, "failed to fetch raw readings").Wrap(err)
	}
	return preprocess.RunFromSeries(raw, cfg)
}

// IdentifySegments runs C2 then C3, returning transient segments (not yet
// persisted) for a selection UI (§4.10 identify_segments).
func (c *Controller) IdentifySegments(ctx context.Context, wellID string, cfg gwconfig.Config) ([]seriesmodel.RecessionSegment, error) {
	s, err := c.loadAndPreprocess(ctx, wellID, cfg)
	if err != nil {
		return nil, err
	}
	if err := checkCancelled(ctx, "preprocess"); err != nil {
		return nil, err
	}

	segments, err := recession.Detect(wellID, s, cfg.MinRecessionLength, cfg.FluctuationTol)
	if err != nil {
		return nil, err
	}
	c.logger().Infow("segments identified", "well_id", wellID, "count", len(segments))
	return segments, nil
}

// FitCurve assembles segments (already identified, e.g. from
// IdentifySegments) and runs C5 in auto or manual mode, then persists the
// result (§4.10 fit_curve).
func (c *Controller) FitCurve(ctx context.Context, wellID string, segments []seriesmodel.RecessionSegment, curveType seriesmodel.CurveType, manualParams *seriesmodel.CurveParams, solverCfg curvefit.SolverConfig) (seriesmodel.Curve, error) {
	var curve seriesmodel.Curve
	var err error
	if manualParams != nil {
		curve, err = curvefit.FitManual(wellID, segments, curveType, *manualParams)
	} else {
		curve, err = curvefit.FitAuto(wellID, segments, curveType, solverCfg)
	}
	if err != nil {
		return seriesmodel.Curve{}, err
	}
	if err := checkCancelled(ctx, "fit"); err != nil {
		return seriesmodel.Curve{}, err
	}

	id, err := c.Store.SaveCurve(ctx, curve, segments)
	if err != nil {
		return seriesmodel.Curve{}, err
	}
	curve.ID = id
	c.logger().Infow("curve fit and saved", "well_id", wellID, "curve_id", id, "r_squared", curve.RSquared)
	return curve, nil
}

// RunRise runs the full RISE pipeline: load raw -> C2 -> C6 -> C8 -> persist
// (§4.10 run_rise).
func (c *Controller) RunRise(ctx context.Context, wellID string, cfg gwconfig.Config) (seriesmodel.Calculation, error) {
	s, err := c.loadAndPreprocess(ctx, wellID, cfg)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}
	if err := checkCancelled(ctx, "preprocess"); err != nil {
		return seriesmodel.Calculation{}, err
	}

	events, err := rise.Analyze(s, cfg)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}
	return c.computeAggregateAndPersist(ctx, wellID, nil, seriesmodel.MethodRise, cfg, s, events)
}

// RunMRC runs the full MRC pipeline: load raw -> C2 -> get curve -> C7 -> C8
// -> persist. Rejects if the curve's well does not match wellID (§4.10
// run_mrc).
func (c *Controller) RunMRC(ctx context.Context, wellID string, curveID uuid.UUID, cfg gwconfig.Config) (seriesmodel.Calculation, error) {
	curve, err := c.Store.GetCurveDetails(ctx, curveID)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}
	if curve.WellID != wellID {
		return seriesmodel.Calculation{}, gwerrors.Newf(gwerrors.InvalidParameter, "curve %s belongs to well %q, not %q", curveID, curve.WellID, wellID).
			WithOffending(curveID)
	}

	s, err := c.loadAndPreprocess(ctx, wellID, cfg)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}
	if err := checkCancelled(ctx, "preprocess"); err != nil {
		return seriesmodel.Calculation{}, err
	}

	events, err := mrc.Analyze(s, curve, cfg)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}
	return c.computeAggregateAndPersist(ctx, wellID, &curveID, seriesmodel.MethodMrc, cfg, s, events)
}

// RunEMR is an explicit stub: EMR is not implemented by this core. It
// returns InvalidParameter rather than silently falling back to another
// method (Design Note §9, Open Question on EMR).
func (c *Controller) RunEMR(ctx context.Context, wellID string, cfg gwconfig.Config) (seriesmodel.Calculation, error) {
	return seriesmodel.Calculation{}, gwerrors.New(gwerrors.InvalidParameter,
		"EMR is unimplemented in this core; the water-year offset between master recession curves has no agreed formulation here").
		WithHint("use RISE or MRC")
}

func (c *Controller) computeAggregateAndPersist(ctx context.Context, wellID string, curveID *uuid.UUID, method seriesmodel.Method, cfg gwconfig.Config, s seriesmodel.Series, events []seriesmodel.RechargeEvent) (seriesmodel.Calculation, error) {
	if err := checkCancelled(ctx, "compute"); err != nil {
		return seriesmodel.Calculation{}, err
	}

	calcID := uuid.New()
	totals := aggregate.Run(calcID, events)

	month, day := cfg.WaterYearBoundary()
	calc := seriesmodel.Calculation{
		ID:      calcID,
		CurveID: curveID,
		WellID:  wellID,
		Method:  method,
		Params: seriesmodel.MethodParams{
			SpecificYield:       cfg.SpecificYield,
			RiseThreshold:       cfg.RiseThreshold,
			MinRecessionLength:  cfg.MinRecessionLength,
			FluctuationTol:      cfg.FluctuationTol,
			MRCDeviationThresh:  cfg.MRCDeviationThresh,
			WaterYearStartMonth: month,
			WaterYearStartDay:   day,
		},
		TotalRechargeIn: totals.TotalRechargeIn,
		AnnualRateInYr:  totals.AnnualRateInYr,
		DataStartTS:     firstTS(s),
		DataEndTS:       lastTS(s),
		CreatedTS:       time.Now().UTC(),
		Events:          events,
		Summaries:       totals.Yearly,
	}

	if err := checkCancelled(ctx, "aggregate"); err != nil {
		return seriesmodel.Calculation{}, err
	}

	id, err := c.Store.SaveCalculation(ctx, calc, events, totals.Yearly)
	if err != nil {
		return seriesmodel.Calculation{}, err
	}
	calc.ID = id
	c.logger().Infow("calculation saved", "well_id", wellID, "method", method, "calc_id", id, "total_recharge_in", calc.TotalRechargeIn)
	return calc, nil
}

func firstTS(s seriesmodel.Series) time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

func lastTS(s seriesmodel.Series) time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Timestamps[s.Len()-1]
}
