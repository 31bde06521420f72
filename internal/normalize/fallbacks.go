package normalize

import "qiankun/internal/types"

// fallbackSet carries the localized default sentences used whenever the
// model response is missing or unusable. The product never shows an
// error for a received response, so every field needs a default path.
type fallbackSet struct {
	overall       string
	advice        string
	turningPoint  string // accepted entry arriving without a description
	paddedTurning string // synthesized entry filling up to three
}

var fallbacks = map[types.Language]fallbackSet{
	types.LangSimplified: {
		overall:       "天机混沌，暂无法批断。请稍后重试。",
		advice:        "顺势而为，守正出奇。",
		turningPoint:  "此岁为运势转折点，宜稳中求进。",
		paddedTurning: "此岁运势有变，宜积累筹码。",
	},
	types.LangTraditional: {
		overall:       "天機混沌，暫無法批斷。請稍後重試。",
		advice:        "順勢而為，守正出奇。",
		turningPoint:  "此歲為運勢轉折點，宜穩中求進。",
		paddedTurning: "此歲運勢有變，宜積累籌碼。",
	},
}

// fallbacksFor resolves the sentence set for a language tag; unknown
// tags fall back to simplified Chinese, the product default.
func fallbacksFor(lang types.Language) fallbackSet {
	if fb, ok := fallbacks[lang]; ok {
		return fb
	}
	return fallbacks[types.LangSimplified]
}

// Default assets used when the model omits or blanks a recommendation.
var (
	defaultEquity = types.Asset{
		Symbol:    "600519",
		Name:      "Kweichow Moutai",
		Rationale: "Stable as a mountain.",
	}
	defaultDigitalAsset = types.Asset{
		Symbol:    "BTC",
		Name:      "Bitcoin",
		Rationale: "Digital gold for a golden destiny.",
	}
)

// defaultTurningAges pads the turning-point list when the model supplied
// fewer than three usable entries.
var defaultTurningAges = []int{10, 20, 35}
