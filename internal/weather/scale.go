package weather

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

var (
	hundred     = decimal.NewFromInt(100)
	msToKMH     = decimal.NewFromFloat(3.6)
	scaleFactor = hundred
)

// Measurement converts a raw observation into the fixed-point x100 value the
// engine compares against market thresholds:
//
//	rainfall:    millimetres over the last hour, x100
//	temperature: degrees Celsius, x100
//	wind speed:  kilometres per hour, x100 (provider reports m/s)
//
// Conversion goes through decimal arithmetic so float noise from the
// provider cannot shift a reading across a threshold. Rounding is half away
// from zero at the final step only.
func Measurement(obs domain.Observation, cond domain.WeatherCondition) (int64, error) {
	var raw decimal.Decimal
	switch cond {
	case domain.ConditionRainfall:
		raw = decimal.NewFromFloat(obs.RainMM)
	case domain.ConditionTemperature:
		raw = decimal.NewFromFloat(obs.TempC)
	case domain.ConditionWindSpeed:
		raw = decimal.NewFromFloat(obs.WindMS).Mul(msToKMH)
	default:
		return 0, fmt.Errorf("weather: measurement: %w", domain.ErrInvalidCondition)
	}

	return raw.Mul(scaleFactor).Round(0).IntPart(), nil
}
