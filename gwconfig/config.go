// Package gwconfig holds the Configuration options from spec §6 and a
// viper-backed loader. Unlike the teacher's package-level var cfg/SetConfig/
// GetConfig (swap/config), Config here is passed by value to every
// collaborator — no ambient mutable state.
package gwconfig

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
)

// DownsampleFrequency is the C2 resampling period.
type DownsampleFrequency string

const (
	DownsampleNone DownsampleFrequency = ""
	Downsample1H   DownsampleFrequency = "1h"
	Downsample1D   DownsampleFrequency = "1D"
	Downsample1W   DownsampleFrequency = "1W"
	Downsample1M   DownsampleFrequency = "1M"
)

// DownsampleMethod is the C2 aggregator used when resampling.
type DownsampleMethod string

const (
	AggregateMean   DownsampleMethod = "mean"
	AggregateMedian DownsampleMethod = "median"
	AggregateLast   DownsampleMethod = "last"
)

// SmoothingWindowType selects trailing vs centered rolling windows (§4.2).
type SmoothingWindowType string

const (
	WindowTrailing SmoothingWindowType = "trailing"
	WindowCentered SmoothingWindowType = "centered"
)

// Config is the full set of recognized options from spec §6.
type Config struct {
	SpecificYield  float64 `mapstructure:"specific_yield"`
	WaterYearMonth int     `mapstructure:"water_year_month"`
	WaterYearDay   int     `mapstructure:"water_year_day"`

	DownsampleFrequency DownsampleFrequency `mapstructure:"downsample_frequency"`
	DownsampleMethod    DownsampleMethod    `mapstructure:"downsample_method"`

	EnableSmoothing     bool                `mapstructure:"enable_smoothing"`
	SmoothingWindow     int                 `mapstructure:"smoothing_window"`
	SmoothingWindowType SmoothingWindowType `mapstructure:"smoothing_window_type"`

	RemoveOutliers   bool    `mapstructure:"remove_outliers"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold"`

	RiseThreshold      float64 `mapstructure:"rise_threshold"`
	MinRecessionLength int     `mapstructure:"min_recession_length"`
	FluctuationTol     float64 `mapstructure:"fluctuation_tolerance"`
	MRCDeviationThresh float64 `mapstructure:"mrc_deviation_threshold"`

	CurveType string `mapstructure:"curve_type"`
}

// Default returns production-ready defaults, the same role the teacher's
// swap/config.DefaultConfig plays for the solver.
func Default() Config {
	return Config{
		SpecificYield:       0.2,
		WaterYearMonth:      10,
		WaterYearDay:        1,
		DownsampleFrequency: DownsampleNone,
		DownsampleMethod:    AggregateMean,
		EnableSmoothing:     false,
		SmoothingWindow:     3,
		SmoothingWindowType: WindowTrailing,
		RemoveOutliers:      false,
		OutlierThreshold:    3.0,
		RiseThreshold:       0.0,
		MinRecessionLength:  10,
		FluctuationTol:      0.0,
		MRCDeviationThresh:  0.1,
		CurveType:           "exponential",
	}
}

// Load reads a YAML/ENV-overridable configuration file into Config using viper,
// starting from Default() so unset keys keep their production defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("GWRECHARGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, gwerrors.Newf(gwerrors.InvalidParameter, "gwconfig: failed to read config %s", path).
			WithOffending(path).Wrap(err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, gwerrors.New(gwerrors.InvalidParameter, "gwconfig: failed to unmarshal config").Wrap(err)
	}
	return cfg, nil
}

// Validate checks every option against its declared domain (spec §6).
func (c Config) Validate() error {
	if c.SpecificYield <= 0 || c.SpecificYield > 0.5 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "specific_yield must be in (0, 0.5], got %v", c.SpecificYield).
			WithOffending(c.SpecificYield).WithHint("set specific_yield between 0 and 0.5")
	}
	if c.WaterYearMonth < 1 || c.WaterYearMonth > 12 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "water_year_month must be 1..12, got %d", c.WaterYearMonth).
			WithOffending(c.WaterYearMonth)
	}
	if c.WaterYearDay < 1 || c.WaterYearDay > 31 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "water_year_day must be 1..31, got %d", c.WaterYearDay).
			WithOffending(c.WaterYearDay)
	}
	if c.OutlierThreshold < 1.0 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "outlier_threshold must be >= 1.0, got %v", c.OutlierThreshold).
			WithOffending(c.OutlierThreshold)
	}
	if c.RiseThreshold < 0 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "rise_threshold must be >= 0, got %v", c.RiseThreshold).
			WithOffending(c.RiseThreshold)
	}
	if c.MinRecessionLength < 2 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "min_recession_length must be >= 2, got %d", c.MinRecessionLength).
			WithOffending(c.MinRecessionLength)
	}
	if c.FluctuationTol < 0 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "fluctuation_tolerance must be >= 0, got %v", c.FluctuationTol).
			WithOffending(c.FluctuationTol)
	}
	if c.MRCDeviationThresh <= 0 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "mrc_deviation_threshold must be > 0, got %v", c.MRCDeviationThresh).
			WithOffending(c.MRCDeviationThresh)
	}
	if c.EnableSmoothing && c.SmoothingWindow < 2 {
		return gwerrors.Newf(gwerrors.InvalidParameter, "smoothing_window must be >= 2, got %d", c.SmoothingWindow).
			WithOffending(c.SmoothingWindow)
	}
	return nil
}

// WaterYearBoundary returns the configured water-year start as (month, day).
func (c Config) WaterYearBoundary() (time.Month, int) {
	return time.Month(c.WaterYearMonth), c.WaterYearDay
}

func (c Config) String() string {
	return fmt.Sprintf("Config{Sy=%.3f WYstart=%d/%d downsample=%s smoothing=%v(%s,w=%d) outliers=%v(z>=%.1f)}",
		c.SpecificYield, c.WaterYearMonth, c.WaterYearDay, c.DownsampleFrequency,
		c.EnableSmoothing, c.SmoothingWindowType, c.SmoothingWindow, c.RemoveOutliers, c.OutlierThreshold)
}
