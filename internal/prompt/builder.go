// Package prompt composes the narrative instruction sent to the
// generative model. The wording is policy and may evolve; the key-point
// extraction rule, the positive-tone constraint, the exactly-three
// turning points requirement and the output-language instruction are
// contract and must not.
package prompt

import (
	"fmt"
	"math"
	"strings"

	"qiankun/internal/types"
)

// instructionTemplate fixes the model's role, tone policy and the strict
// JSON output contract. The schema keys here are the ones the repair
// engine parses; keep the two in sync.
const instructionTemplate = `
Role: You are a professional Chinese BaZi fortune-teller (命理师) AND a modern financial strategist.
Style: concise, structured, persuasive, positive, no fear-mongering. Mix a little classical Chinese flavor with clear modern advice.

Input:
User: %s (%s)
Birth: %s %s
Place: %s
Trend Data:
%s

Output Language: %s

Constraints:
- MUST be helpful and positive. Down cycles = accumulation, reset, learning — NEVER loss.
- No medical/legal/guarantees. No extreme negativity.
- Use specific and plausible assets; keep to 1 stock + 1 crypto.
- DO NOT repeat fields, DO NOT output long numbers, DO NOT include any markdown.

Task:
Return ONLY valid JSON (no markdown, no code fences, no extra text). The JSON MUST strictly follow the schema below.
turningPoints MUST be an array of EXACTLY 3 objects, each with: age, year, description, category.

1. overallDestiny: A summary paragraph (approx 80-120 words) describing the person's "Destiny Asset Class". Use glowing metaphors like "Blue Chip", "High Growth Unicorn", "Digital Gold".
2. turningPoints: Identify 3 critical ages drawn from the provided trend points.
   - category: UP (auspicious rise), DOWN (preparation/rest), TRANSITION (transformation).
   - description: One sentence prediction that emphasizes OPPORTUNITY.
3. actionAdvice: A short strategy sentence (e.g., "Hedge against emotional volatility in your 30s").
4. matchedAssets: Recommend one equity (symbol/name) and one digital asset (symbol/name) that "spiritually" matches this user, each with a rationale that sounds mystical yet financial.

Schema:
{
  "overallDestiny": string,
  "turningPoints": [{ "age": int, "year": int, "description": string, "category": "UP"|"DOWN"|"TRANSITION" }],
  "actionAdvice": string,
  "matchedAssets": {
    "equity": { "symbol": string, "name": string, "rationale": string },
    "digitalAsset": { "symbol": string, "name": string, "rationale": string }
  }
}
`

// KeyPoints selects the reduced trend subset exposed to the model:
// every 10th point by index plus every flagged turning point. Decade
// points carry the flag too, so no dedup is needed. The extraction rule
// is fixed.
func KeyPoints(series types.Series) []types.TrendPoint {
	points := make([]types.TrendPoint, 0, len(series)/4)
	for i, p := range series {
		if i%10 == 0 || p.TurningPoint {
			points = append(points, p)
		}
	}
	return points
}

// formatPoint renders one key point as a single prompt line.
func formatPoint(p types.TrendPoint) string {
	direction := "Down"
	if p.Close > p.Open {
		direction = "Up"
	}
	return fmt.Sprintf("Age %d (%d %s): Score %d (%s)", p.Age, p.Year, p.GanZhi, int(math.Round(p.Close)), direction)
}

func languageInstruction(lang types.Language) string {
	if lang == types.LangTraditional {
		return "Traditional Chinese (zh-TW)"
	}
	return "Simplified Chinese (zh-CN)"
}

// Build composes the full instruction for one identity and its series.
func Build(in types.Identity, series types.Series, lang types.Language) string {
	lines := make([]string, 0, len(series)/4)
	for _, p := range KeyPoints(series) {
		lines = append(lines, formatPoint(p))
	}

	return fmt.Sprintf(instructionTemplate,
		in.Name, in.Gender,
		in.BirthDate, in.BirthTime,
		in.BirthPlace,
		strings.Join(lines, "\n"),
		languageInstruction(lang),
	)
}
