package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caeser-uofm/gwrecharge/curvefit"
	"github.com/caeser-uofm/gwrecharge/gwconfig"
	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// fakeStore is an in-memory Store stand-in so the controller can be
// exercised without a live Postgres connection.
type fakeStore struct {
	curves       map[uuid.UUID]seriesmodel.Curve
	savedCurve   *seriesmodel.Curve
	savedCalc    *seriesmodel.Calculation
	saveCurveErr error
	saveCalcErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{curves: map[uuid.UUID]seriesmodel.Curve{}}
}

func (f *fakeStore) SaveCurve(_ context.Context, curve seriesmodel.Curve, _ []seriesmodel.RecessionSegment) (uuid.UUID, error) {
	if f.saveCurveErr != nil {
		return uuid.UUID{}, f.saveCurveErr
	}
	id := uuid.New()
	curve.ID = id
	f.curves[id] = curve
	f.savedCurve = &curve
	return id, nil
}

func (f *fakeStore) GetCurveDetails(_ context.Context, curveID uuid.UUID) (seriesmodel.Curve, error) {
	c, ok := f.curves[curveID]
	if !ok {
		return seriesmodel.Curve{}, gwerrors.New(gwerrors.RepositoryError, "curve not found").WithOffending(curveID)
	}
	return c, nil
}

func (f *fakeStore) SaveCalculation(_ context.Context, calc seriesmodel.Calculation, _ []seriesmodel.RechargeEvent, _ []seriesmodel.YearlySummary) (uuid.UUID, error) {
	if f.saveCalcErr != nil {
		return uuid.UUID{}, f.saveCalcErr
	}
	id := uuid.New()
	calc.ID = id
	f.savedCalc = &calc
	return id, nil
}

// fakeSource serves a fixed, already-standardized series for one well.
type fakeSource struct {
	series map[string]seriesmodel.Series
	err    error
}

func (f *fakeSource) FetchReadings(_ context.Context, wellID string, _, _ *time.Time) (seriesmodel.Series, error) {
	if f.err != nil {
		return seriesmodel.Series{}, f.err
	}
	s, ok := f.series[wellID]
	if !ok {
		return seriesmodel.Series{}, gwerrors.New(gwerrors.InsufficientData, "no readings for well").WithOffending(wellID)
	}
	return s, nil
}

func risingSeries(startLevel float64, days int, dailyRise float64) seriesmodel.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := make([]time.Time, days)
	levels := make([]float64, days)
	for i := 0; i < days; i++ {
		ts[i] = base.AddDate(0, 0, i)
		levels[i] = startLevel + dailyRise*float64(i)
	}
	return seriesmodel.Series{Timestamps: ts, Levels: levels}
}

func TestRunRise_HappyPathPersistsCalculation(t *testing.T) {
	wellID := "well-42"
	src := &fakeSource{series: map[string]seriesmodel.Series{
		wellID: risingSeries(10.0, 30, 0.05),
	}}
	store := newFakeStore()
	c := &Controller{Store: store, Source: src, Config: gwconfig.Default()}

	cfg := gwconfig.Default()
	cfg.RiseThreshold = 0.01

	calc, err := c.RunRise(context.Background(), wellID, cfg)
	if err != nil {
		t.Fatalf("RunRise returned error: %v", err)
	}
	if calc.WellID != wellID {
		t.Fatalf("WellID = %q, want %q", calc.WellID, wellID)
	}
	if calc.Method != seriesmodel.MethodRise {
		t.Fatalf("Method = %v, want Rise", calc.Method)
	}
	if calc.CurveID != nil {
		t.Fatalf("RISE calculation should not carry a curve id, got %v", calc.CurveID)
	}
	if store.savedCalc == nil {
		t.Fatal("expected SaveCalculation to be called")
	}
	if calc.TotalRechargeIn <= 0 {
		t.Fatalf("TotalRechargeIn = %v, want > 0 for a steadily rising series", calc.TotalRechargeIn)
	}
}

func TestRunMRC_RejectsCurveFromDifferentWell(t *testing.T) {
	store := newFakeStore()
	curveID := uuid.New()
	store.curves[curveID] = seriesmodel.Curve{ID: curveID, WellID: "well-A", CurveType: seriesmodel.CurveLinear, Params: seriesmodel.CurveParams{B: 0.05}}

	src := &fakeSource{series: map[string]seriesmodel.Series{
		"well-B": risingSeries(10.0, 10, 0.02),
	}}
	c := &Controller{Store: store, Source: src}

	_, err := c.RunMRC(context.Background(), "well-B", curveID, gwconfig.Default())
	if err == nil {
		t.Fatal("expected an error for mismatched well/curve")
	}
	gerr, ok := err.(*gwerrors.Error)
	if !ok {
		t.Fatalf("error is %T, want *gwerrors.Error", err)
	}
	if gerr.Kind != gwerrors.InvalidParameter {
		t.Fatalf("Kind = %v, want InvalidParameter", gerr.Kind)
	}
}

func TestRunMRC_HappyPathUsesCurveFromStore(t *testing.T) {
	wellID := "well-1"
	store := newFakeStore()
	curveID := uuid.New()
	store.curves[curveID] = seriesmodel.Curve{ID: curveID, WellID: wellID, CurveType: seriesmodel.CurveLinear, Params: seriesmodel.CurveParams{B: 0.05}}

	levels := []float64{10.00, 9.95, 9.90, 9.89, 9.80, 9.75, 9.70}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := make([]time.Time, len(levels))
	for i := range levels {
		ts[i] = base.AddDate(0, 0, i)
	}
	src := &fakeSource{series: map[string]seriesmodel.Series{wellID: {Timestamps: ts, Levels: levels}}}

	cfg := gwconfig.Default()
	cfg.MRCDeviationThresh = 0.01
	c := &Controller{Store: store, Source: src}

	calc, err := c.RunMRC(context.Background(), wellID, curveID, cfg)
	if err != nil {
		t.Fatalf("RunMRC returned error: %v", err)
	}
	if calc.CurveID == nil || *calc.CurveID != curveID {
		t.Fatalf("CurveID = %v, want %v", calc.CurveID, curveID)
	}
}

func TestRunEMR_ReturnsInvalidParameter(t *testing.T) {
	c := &Controller{}
	_, err := c.RunEMR(context.Background(), "well-1", gwconfig.Default())
	gerr, ok := err.(*gwerrors.Error)
	if !ok {
		t.Fatalf("error is %T, want *gwerrors.Error", err)
	}
	if gerr.Kind != gwerrors.InvalidParameter {
		t.Fatalf("Kind = %v, want InvalidParameter", gerr.Kind)
	}
}

func TestFitCurve_AutoModePersistsCurve(t *testing.T) {
	store := newFakeStore()
	c := &Controller{Store: store}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ts []time.Time
	var levels []float64
	for i := 0; i < 10; i++ {
		ts = append(ts, base.AddDate(0, 0, i))
		levels = append(levels, 10.0-0.05*float64(i))
	}
	segments := []seriesmodel.RecessionSegment{{
		ID:           uuid.New(),
		WellID:       "well-1",
		StartTS:      ts[0],
		EndTS:        ts[len(ts)-1],
		DurationDays: len(ts) - 1,
		StartLevel:   levels[0],
		EndLevel:     levels[len(levels)-1],
		Data:         seriesmodel.Series{Timestamps: ts, Levels: levels},
	}}

	curve, err := c.FitCurve(context.Background(), "well-1", segments, seriesmodel.CurveLinear, nil, curvefit.SolverConfig{})
	if err != nil {
		t.Fatalf("FitCurve returned error: %v", err)
	}
	if curve.ID == uuid.Nil {
		t.Fatal("expected a persisted curve id")
	}
	if store.savedCurve == nil {
		t.Fatal("expected SaveCurve to be called")
	}
}

func TestFitCurve_ManualModeSkipsSolver(t *testing.T) {
	store := newFakeStore()
	c := &Controller{Store: store}

	ts := []time.Time{time.Now(), time.Now().Add(24 * time.Hour)}
	segments := []seriesmodel.RecessionSegment{{
		ID:     uuid.New(),
		WellID: "well-1",
		Data:   seriesmodel.Series{Timestamps: ts, Levels: []float64{10.0, 9.9}},
	}}
	params := seriesmodel.CurveParams{A: 1, B: 0.1}

	curve, err := c.FitCurve(context.Background(), "well-1", segments, seriesmodel.CurveExponential, &params, curvefit.SolverConfig{})
	if err != nil {
		t.Fatalf("FitCurve (manual) returned error: %v", err)
	}
	if curve.Params != params {
		t.Fatalf("Params = %+v, want %+v", curve.Params, params)
	}
	if !curve.IsManual {
		t.Fatal("expected IsManual to be true for manual fit")
	}
}
