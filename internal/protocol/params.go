package protocol

import (
	"fmt"
	"math"
	"strings"

	"github.com/rileyhilliard/sigmon/internal/errors"
)

// Weights are the per-component weights the engine uses to build its score.
type Weights struct {
	Renko float64 `json:"w_renko" yaml:"w_renko" mapstructure:"w_renko"`
	LR    float64 `json:"w_lr" yaml:"w_lr" mapstructure:"w_lr"`
	MACD  float64 `json:"w_macd" yaml:"w_macd" mapstructure:"w_macd"`
	Cross float64 `json:"w_cross" yaml:"w_cross" mapstructure:"w_cross"`
	Zero  float64 `json:"w_zero" yaml:"w_zero" mapstructure:"w_zero"`
}

// StrategyParams is the tunable parameter set forwarded to the engine.
type StrategyParams struct {
	HystKLR     float64 `json:"hyst_k_lr" yaml:"hyst_k_lr" mapstructure:"hyst_k_lr"`
	HystKMACD   float64 `json:"hyst_k_macd" yaml:"hyst_k_macd" mapstructure:"hyst_k_macd"`
	MACDStrongK float64 `json:"macd_strong_k" yaml:"macd_strong_k" mapstructure:"macd_strong_k"`
	Threshold   float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	Weights     Weights `json:"weights" yaml:"weights" mapstructure:"weights"`
}

// DefaultParams returns the documented defaults. Every params event starts
// from these, so a field missing from the event never keeps a stale value.
func DefaultParams() StrategyParams {
	return StrategyParams{
		HystKLR:     2.0,
		HystKMACD:   3.0,
		MACDStrongK: 1.0,
		Threshold:   1.0,
		Weights: Weights{
			Renko: 1.2,
			LR:    0.8,
			MACD:  0.8,
			Cross: 0.2,
			Zero:  0.2,
		},
	}
}

// ParamFields lists the editable fields by wire name, in display order.
var ParamFields = []string{
	"hyst_k_lr",
	"hyst_k_macd",
	"macd_strong_k",
	"threshold",
	"w_renko",
	"w_lr",
	"w_macd",
	"w_cross",
	"w_zero",
}

func (p *StrategyParams) fieldPtr(name string) *float64 {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hyst_k_lr":
		return &p.HystKLR
	case "hyst_k_macd":
		return &p.HystKMACD
	case "macd_strong_k":
		return &p.MACDStrongK
	case "threshold":
		return &p.Threshold
	case "w_renko":
		return &p.Weights.Renko
	case "w_lr":
		return &p.Weights.LR
	case "w_macd":
		return &p.Weights.MACD
	case "w_cross":
		return &p.Weights.Cross
	case "w_zero":
		return &p.Weights.Zero
	}
	return nil
}

// Get returns the value of a field by wire name.
func (p StrategyParams) Get(name string) (float64, bool) {
	ptr := p.fieldPtr(name)
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

// Set assigns a field by wire name. Unknown names and non-finite values
// are rejected.
func (p *StrategyParams) Set(name string, v float64) error {
	ptr := p.fieldPtr(name)
	if ptr == nil {
		return errors.New(errors.ErrParams,
			fmt.Sprintf("Unknown parameter '%s'", name),
			fmt.Sprintf("Valid parameters: %s", strings.Join(ParamFields, ", ")))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New(errors.ErrParams,
			fmt.Sprintf("Parameter '%s' must be a finite number", name),
			"Enter a plain decimal value like 1.5")
	}
	*ptr = v
	return nil
}

// Validate checks every field is a finite number.
func (p StrategyParams) Validate() error {
	for _, name := range ParamFields {
		v, _ := p.Get(name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrParams,
				fmt.Sprintf("Parameter '%s' must be a finite number", name),
				"Fix the value before applying")
		}
	}
	return nil
}
