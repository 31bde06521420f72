// Package normalize repairs raw generative-model output into the strict
// Reading contract. It is a total function: empty strings, plain prose,
// truncated JSON, JSON buried in commentary and well-formed objects all
// come out as a fully populated Reading. A degraded narrative beats an
// error state here.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"qiankun/internal/types"
)

// maxNarrativeRunes bounds the overall narrative; longer text is cut and
// marked with an ellipsis.
const maxNarrativeRunes = 800

const (
	minPlausibleYear = 1900
	maxPlausibleYear = 2100
)

// Reading normalizes raw model text for the given language and birth
// date. birthDate is only consulted to derive years for turning points
// whose own year is missing or implausible.
func Reading(raw string, lang types.Language, birthDate string) types.Reading {
	cleaned := StripFences(raw)

	var payload map[string]any
	if candidate, ok := ExtractObject(cleaned); ok {
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			payload = nil
		}
	}
	if payload == nil {
		// Parse failed or nothing object-shaped: the whole text becomes
		// the narrative and every other field is defaulted below.
		payload = map[string]any{"overallDestiny": cleaned}
	}

	return repair(payload, lang, birthYearOf(birthDate))
}

// repair fills, truncates, clamps and deduplicates every field
// independently, so one malformed field never contaminates another.
func repair(raw map[string]any, lang types.Language, birthYear int) types.Reading {
	fb := fallbacksFor(lang)

	overall := stringField(raw, fb.overall, "overallDestiny", "overallNarrative")
	overall = unwrapDoubleEncoded(overall)
	overall = clampText(overall)

	out := types.Reading{
		OverallNarrative: overall,
		ActionAdvice:     stringField(raw, fb.advice, "actionAdvice", "financialAdvice"),
		MatchedAssets:    repairAssets(raw),
	}

	out.TurningPoints = repairTurningPoints(raw["turningPoints"], fb, birthYear)
	return out
}

// unwrapDoubleEncoded guards against the model returning the whole JSON
// object double-encoded as the narrative string. When the text itself
// looks like an object carrying a narrative key, the inner string wins.
func unwrapDoubleEncoded(overall string) string {
	trimmed := strings.TrimSpace(overall)
	if !strings.HasPrefix(trimmed, "{") {
		return overall
	}
	if !strings.Contains(trimmed, `"overallDestiny"`) && !strings.Contains(trimmed, `"overallNarrative"`) {
		return overall
	}
	candidate, ok := ExtractObject(trimmed)
	if !ok {
		return overall
	}
	var inner map[string]any
	if err := json.Unmarshal([]byte(candidate), &inner); err != nil {
		return overall
	}
	if s := stringField(inner, "", "overallDestiny", "overallNarrative"); s != "" {
		return s
	}
	return overall
}

func repairAssets(raw map[string]any) types.MatchedAssets {
	assets := mapField(raw, "matchedAssets", "luckyAssets")
	return types.MatchedAssets{
		Equity:       repairAsset(mapField(assets, "equity", "stock"), defaultEquity),
		DigitalAsset: repairAsset(mapField(assets, "digitalAsset", "crypto"), defaultDigitalAsset),
	}
}

// repairAsset defaults symbol, name and rationale independently: a
// response naming only the symbol still keeps that symbol.
func repairAsset(m map[string]any, def types.Asset) types.Asset {
	return types.Asset{
		Symbol:    stringField(m, def.Symbol, "symbol"),
		Name:      stringField(m, def.Name, "name"),
		Rationale: stringField(m, def.Rationale, "rationale", "reason"),
	}
}

// repairTurningPoints accepts at most three entries whose age parses to
// a finite number, deduplicated by that parsed age, then pads from the
// fixed default ages until exactly three exist.
func repairTurningPoints(raw any, fb fallbackSet, birthYear int) []types.TurningPoint {
	out := make([]types.TurningPoint, 0, 3)
	seen := map[float64]bool{}

	entries, _ := raw.([]any)
	for _, entry := range entries {
		if len(out) >= 3 {
			break
		}
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		age, ok := numberField(m, "age")
		if !ok {
			continue
		}
		if seen[age] {
			continue
		}
		seen[age] = true

		year, ok := numberField(m, "year")
		if !ok || year < minPlausibleYear || year > maxPlausibleYear {
			year = float64(birthYear) + math.Round(age)
		}

		out = append(out, types.TurningPoint{
			Age:         int(math.Round(age)),
			Year:        int(math.Round(year)),
			Description: stringField(m, fb.turningPoint, "description"),
			Category:    repairCategory(m),
		})
	}

	for _, age := range defaultTurningAges {
		if len(out) >= 3 {
			break
		}
		if seen[float64(age)] {
			continue
		}
		out = append(out, types.TurningPoint{
			Age:         age,
			Year:        birthYear + age,
			Description: fb.paddedTurning,
			Category:    types.CategoryTransition,
		})
	}

	return out
}

// repairCategory validates against the three-value enum. Legacy labels
// from the bull/bear vocabulary map onto it; anything else is a
// transition.
func repairCategory(m map[string]any) types.Category {
	value := stringField(m, "", "category", "type")
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "UP", "BULL":
		return types.CategoryUp
	case "DOWN", "BEAR":
		return types.CategoryDown
	default:
		return types.CategoryTransition
	}
}

// clampText truncates to maxNarrativeRunes, trimming trailing space and
// appending an ellipsis when anything was cut.
func clampText(s string) string {
	runes := []rune(s)
	if len(runes) <= maxNarrativeRunes {
		return s
	}
	return strings.TrimRight(string(runes[:maxNarrativeRunes]), " \t\n") + "…"
}

// birthYearOf extracts the year prefix of a YYYY-MM-DD string, tolerating
// garbage the same way the rest of this package does.
func birthYearOf(birthDate string) int {
	head, _, _ := strings.Cut(birthDate, "-")
	if y, err := strconv.Atoi(strings.TrimSpace(head)); err == nil && y > 0 {
		return y
	}
	return 2000
}

// stringField returns the first non-blank string value among keys, or
// the fallback.
func stringField(m map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}

// mapField returns the first object value among keys; missing or
// non-object values yield an empty map so lookups stay total.
func mapField(m map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if inner, ok := m[key].(map[string]any); ok {
			return inner
		}
	}
	return map[string]any{}
}

// numberField coerces a value to a finite float64. Models emit numbers
// as JSON numbers or numeric strings interchangeably; both are accepted.
func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}
