package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// FixedPointScale is the implied decimal scaling applied to thresholds and
// measurements: a value of 12.34 is stored as 1234.
const FixedPointScale = 100

// WeatherCondition identifies the measured quantity a market settles on.
type WeatherCondition uint8

const (
	ConditionRainfall WeatherCondition = iota
	ConditionTemperature
	ConditionWindSpeed
)

// String returns the canonical name of the condition.
func (c WeatherCondition) String() string {
	switch c {
	case ConditionRainfall:
		return "rainfall"
	case ConditionTemperature:
		return "temperature"
	case ConditionWindSpeed:
		return "wind_speed"
	default:
		return fmt.Sprintf("condition(%d)", uint8(c))
	}
}

// Valid reports whether the condition is one of the known values.
func (c WeatherCondition) Valid() bool {
	return c <= ConditionWindSpeed
}

// ParseCondition converts a canonical condition name back to its enum value.
func ParseCondition(s string) (WeatherCondition, error) {
	switch s {
	case "rainfall":
		return ConditionRainfall, nil
	case "temperature":
		return ConditionTemperature, nil
	case "wind_speed":
		return ConditionWindSpeed, nil
	default:
		return 0, fmt.Errorf("parse condition %q: %w", s, ErrInvalidCondition)
	}
}

// Unit returns the display unit of the condition at human scale.
func (c WeatherCondition) Unit() string {
	switch c {
	case ConditionRainfall:
		return "mm"
	case ConditionTemperature:
		return "°C"
	case ConditionWindSpeed:
		return "km/h"
	default:
		return ""
	}
}

// Operator is the comparison applied between the measured value and a
// market's threshold. Equality satisfies neither operator.
type Operator uint8

const (
	OperatorAbove Operator = iota
	OperatorBelow
)

// String returns the canonical name of the operator.
func (o Operator) String() string {
	switch o {
	case OperatorAbove:
		return "above"
	case OperatorBelow:
		return "below"
	default:
		return fmt.Sprintf("operator(%d)", uint8(o))
	}
}

// Valid reports whether the operator is one of the known values.
func (o Operator) Valid() bool {
	return o <= OperatorBelow
}

// ParseOperator converts a canonical operator name back to its enum value.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "above":
		return OperatorAbove, nil
	case "below":
		return OperatorBelow, nil
	default:
		return 0, fmt.Errorf("parse operator %q: %w", s, ErrInvalidOperator)
	}
}

// MarketStatus represents the lifecycle state of a market. Open is the
// initial state; Resolved and Cancelled are terminal.
type MarketStatus uint8

const (
	MarketOpen MarketStatus = iota
	MarketResolved
	MarketCancelled
)

// String returns the canonical name of the status.
func (s MarketStatus) String() string {
	switch s {
	case MarketOpen:
		return "open"
	case MarketResolved:
		return "resolved"
	case MarketCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Market is a binary proposition about a future weather measurement.
// Amounts are denominated in the smallest native token unit; Threshold is
// fixed-point ×100; timestamps are unix seconds.
type Market struct {
	ID             uint64
	City           string
	Condition      WeatherCondition
	Operator       Operator
	Threshold      int64
	ResolutionTime int64
	CreatedAt      int64
	TotalYesPool   int64
	TotalNoPool    int64
	Status         MarketStatus
	Outcome        bool
	Creator        common.Address
}

// Question renders the market proposition as a human-readable sentence,
// e.g. "Will rainfall in London be above 5.00 mm?".
func (m Market) Question() string {
	whole := m.Threshold / FixedPointScale
	frac := m.Threshold % FixedPointScale
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("Will %s in %s be %s %d.%02d %s?",
		m.Condition, m.City, m.Operator, whole, frac, m.Condition.Unit())
}
