// Package types holds the plain data structures shared across qiankun:
// the user identity, the synthesized trend series, and the narrative
// reading contract. No behavior lives here.
package types

// Gender follows the traditional qian/kun framing of the input form.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Language is the requested output language tag.
type Language string

const (
	LangSimplified  Language = "zh-CN"
	LangTraditional Language = "zh-TW"
)

// Identity is the birth data a single trend computation is derived from.
// Immutable once submitted; Name and BirthPlace may be empty.
type Identity struct {
	Name       string `json:"name"`
	Gender     Gender `json:"gender"`
	BirthDate  string `json:"birthDate"` // YYYY-MM-DD
	BirthTime  string `json:"birthTime"` // HH:mm
	BirthPlace string `json:"birthPlace"`
}

// SeedKey is the canonical concatenation all pseudo-randomness derives from.
// Identical identities always produce identical keys, and therefore
// identical series.
func (id Identity) SeedKey() string {
	return id.Name + "-" + id.BirthDate + "-" + id.BirthTime + "-" + id.BirthPlace
}

// TrendPoint is one simulated year of the life trend.
//
// Invariants maintained by the synthesizer:
//
//	0 <= Low <= min(Open, Close) <= max(Open, Close) <= High <= 100
//	Open, Close in [5, 95]
//	Close of point i == Open of point i+1
//	TurningPoint == (|Open-Close| > 15 || Age%10 == 0)
type TrendPoint struct {
	Year         int     `json:"year"`
	Age          int     `json:"age"`
	Open         float64 `json:"open"`
	Close        float64 `json:"close"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Score        float64 `json:"score"` // alias of Close, kept for chart consumers
	TurningPoint bool    `json:"isTurningPoint"`
	GanZhi       string  `json:"ganZhi"` // sexagenary cycle label for the year
}

// Series is the full 81-point trend, age-ascending, owned by the caller.
type Series []TrendPoint

// Category classifies a narrative turning point.
type Category string

const (
	CategoryUp         Category = "UP"
	CategoryDown       Category = "DOWN"
	CategoryTransition Category = "TRANSITION"
)

// TurningPoint is one narratively significant age in a Reading.
type TurningPoint struct {
	Age         int      `json:"age"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// Asset is one recommended instrument with its matching rationale.
type Asset struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
}

// MatchedAssets pairs one equity and one digital asset with the user.
type MatchedAssets struct {
	Equity       Asset `json:"equity"`
	DigitalAsset Asset `json:"digitalAsset"`
}

// Reading is the strict narrative output contract. The normalizer
// guarantees every field is populated and TurningPoints has exactly
// three entries, regardless of what the model returned.
type Reading struct {
	OverallNarrative string         `json:"overallNarrative"`
	TurningPoints    []TurningPoint `json:"turningPoints"`
	ActionAdvice     string         `json:"actionAdvice"`
	MatchedAssets    MatchedAssets  `json:"matchedAssets"`
}

// UsageState mirrors the entitlement collaborator's view of one client.
type UsageState struct {
	Count       int  `json:"count"`
	Activated   bool `json:"isActivated"`
	ExtraTrials int  `json:"extraTrials"`
}

// ActivationCode is a single-use entitlement token.
type ActivationCode struct {
	Code        string `json:"code"`
	Used        bool   `json:"isUsed"`
	GeneratedAt int64  `json:"generatedAt"` // unix milliseconds
}
