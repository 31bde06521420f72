package oracle

import (
	"context"
	"fmt"

	"qiankun/internal/normalize"
	"qiankun/internal/prompt"
	"qiankun/internal/types"
)

// Analyzer runs the full narrative pipeline: compose the instruction,
// consult the candidate models, repair whatever came back.
type Analyzer struct {
	attempter Attempter
	models    []string
}

// NewAnalyzer wires an analyzer onto a transport and a candidate list.
func NewAnalyzer(a Attempter, models []string) *Analyzer {
	if len(models) == 0 {
		models = DefaultModels()
	}
	return &Analyzer{attempter: a, models: models}
}

// Analyze produces the Reading for an already-synthesized series.
//
// Transport failure of every candidate is the only error path. A
// response body of any quality is normalized into a valid Reading,
// never an error.
func (an *Analyzer) Analyze(ctx context.Context, in types.Identity, series types.Series, lang types.Language) (types.Reading, error) {
	text, err := Consult(ctx, an.attempter, an.models, prompt.Build(in, series, lang))
	if err != nil {
		return types.Reading{}, fmt.Errorf("narrative consultation failed: %w", err)
	}
	return normalize.Reading(text, lang, in.BirthDate), nil
}
