package trend

import (
	"errors"
	"fmt"
	"math"
	"time"

	"qiankun/internal/types"
)

// ErrInvalidBirthDate is returned when the identity's birth date does not
// parse as YYYY-MM-DD. Date validity is the synthesizer's only precondition;
// it is checked here so a bad date fails fast instead of poisoning the
// cycle indices downstream.
var ErrInvalidBirthDate = errors.New("invalid birth date")

const birthDateLayout = "2006-01-02"

// Lifespan is the number of simulated years; ages run 0..Lifespan inclusive.
const Lifespan = 80

// The sexagenary cycle tables. A year's label combines one heavenly stem
// (10-cycle) with one earthly branch (12-cycle), each wrapping independently.
var (
	celestialStems  = []string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	earthlyBranches = []string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
)

// BirthYear extracts and validates the calendar year from an identity.
func BirthYear(in types.Identity) (int, error) {
	t, err := time.Parse(birthDateLayout, in.BirthDate)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBirthDate, in.BirthDate)
	}
	return t.Year(), nil
}

// Synthesize produces the 81-point life trend for an identity.
//
// The walk starts at score 50 with zero momentum. Momentum is redrawn on
// every decade boundary (the "great cycle" shift, age 0 included) as an
// integral value in [-3, 4]. Volatility is age-shaped: 15 before 20,
// 8 after 50, 10 otherwise. Each year closes at
// clamp(open + momentum + Range(-v, v), 5, 95) and grows wicks of up to
// Range(0, v/2) beyond the body, capped to [0, 100].
//
// The draw order per year is fixed (momentum, change, high, low); that
// ordering is load-bearing for reproducibility and must not change.
func Synthesize(in types.Identity) (types.Series, error) {
	birthYear, err := BirthYear(in)
	if err != nil {
		return nil, err
	}

	rng := NewSeededRand(DeriveSeed(in.SeedKey()))

	stemIndex := mod(birthYear-4, 10)
	branchIndex := mod(birthYear-4, 12)

	series := make(types.Series, 0, Lifespan+1)
	currentScore := 50.0
	momentum := 0.0

	for age := 0; age <= Lifespan; age++ {
		ganZhi := celestialStems[(stemIndex+age)%10] + earthlyBranches[(branchIndex+age)%12]

		volatility := 10.0
		if age < 20 {
			volatility = 15
		} else if age > 50 {
			volatility = 8
		}

		if age%10 == 0 {
			momentum = rng.Range(-3, 4)
		}

		open := currentScore
		change := momentum + rng.Range(-volatility, volatility)
		close := math.Max(5, math.Min(95, open+change))

		high := math.Min(100, math.Max(open, close)+rng.Range(0, volatility/2))
		low := math.Max(0, math.Min(open, close)-rng.Range(0, volatility/2))

		series = append(series, types.TrendPoint{
			Year:         birthYear + age,
			Age:          age,
			Open:         open,
			Close:        close,
			High:         high,
			Low:          low,
			Score:        close,
			TurningPoint: math.Abs(open-close) > 15 || age%10 == 0,
			GanZhi:       ganZhi,
		})

		currentScore = close
	}

	return series, nil
}

// mod is the non-negative modulo; Go's % keeps the dividend's sign.
func mod(a, n int) int {
	return ((a % n) + n) % n
}
