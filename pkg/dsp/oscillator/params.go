package oscillator

import (
	"fmt"

	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
	"github.com/justyntemme/waves/pkg/framework/param"
)

// ParamID selects a parameter slot.
type ParamID uint16

const (
	// ParamWave selects the wave by linear index across all banks.
	ParamWave ParamID = iota
	ParamReserved2
	ParamReserved3
	ParamReserved4
	ParamReserved5
	ParamReserved6
	// ParamShape sets how far the phase is stretched.
	ParamShape
	// ParamShiftShape sets the steepness of the overrun fade.
	ParamShiftShape
)

// String returns the slot name.
func (id ParamID) String() string {
	switch id {
	case ParamWave:
		return "Wave"
	case ParamReserved2, ParamReserved3, ParamReserved4, ParamReserved5, ParamReserved6:
		return fmt.Sprintf("Param %d", int(id)+1)
	case ParamShape:
		return "Shape"
	case ParamShiftShape:
		return "Shift Shape"
	default:
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
}

// Parameters describes the oscillator's slots for hosts and front ends.
// Wave values display as bank letter and position, e.g. "B7". Shape and
// shift shape are percentages. Reserved slots are hidden.
func Parameters(catalog *wavetable.Catalog) *param.Registry {
	last := catalog.Total() - 1
	if last < 0 {
		last = 0
	}

	r := param.NewRegistry()
	r.Add(
		param.New(uint32(ParamWave), ParamWave.String()).
			Range(0, float64(last)).
			List(int32(last)).
			Formatter(
				func(v float64) string { return catalog.Name(int(v + 0.5)) },
				func(s string) (float64, error) {
					i, err := catalog.Lookup(s)
					return float64(i), err
				},
			).
			Build(),
	)
	for id := ParamReserved2; id <= ParamReserved6; id++ {
		r.Add(param.New(uint32(id), id.String()).Hidden().Build())
	}
	r.Add(
		param.New(uint32(ParamShape), ParamShape.String()).
			ShortName("Shp").
			Range(0, 100).
			Unit("%").
			Formatter(param.PercentFormatter, param.PercentParser).
			Build(),
		param.New(uint32(ParamShiftShape), ParamShiftShape.String()).
			ShortName("Shift").
			Range(0, 100).
			Unit("%").
			Formatter(param.PercentFormatter, param.PercentParser).
			Build(),
	)
	return r
}

// RawValue converts a plain parameter value, as described by Parameters, to
// the raw host value SetParameter takes.
func RawValue(id ParamID, plain float64) uint16 {
	switch id {
	case ParamWave:
		if plain < 0 {
			return 0
		}
		return uint16(plain + 0.5)
	case ParamShape, ParamShiftShape:
		return fastmath.F32ToParam(float32(plain / 100))
	default:
		return 0
	}
}
