package oracle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qiankun/internal/types"
)

// scriptedAttempter serves canned per-model results without a network.
type scriptedAttempter struct {
	results  map[string]string
	attempts []string
}

func (s *scriptedAttempter) Attempt(_ context.Context, model, _ string) (string, error) {
	s.attempts = append(s.attempts, model)
	if text, ok := s.results[model]; ok {
		return text, nil
	}
	return "", fmt.Errorf("model %s: 503", model)
}

func analyzerIdentity() types.Identity {
	return types.Identity{Name: "测试", BirthDate: "1990-05-15", BirthTime: "08:00", BirthPlace: "Beijing"}
}

func analyzerSeries() types.Series {
	return types.Series{
		{Year: 1990, Age: 0, Open: 50, Close: 52, High: 55, Low: 48, Score: 52, TurningPoint: true, GanZhi: "庚午"},
	}
}

func TestAnalyzer_NormalizesFencedResponse(t *testing.T) {
	stub := &scriptedAttempter{results: map[string]string{
		"model-b": "```json\n{\"overallDestiny\":\"蓝筹命格\"}\n```",
	}}
	an := NewAnalyzer(stub, []string{"model-a", "model-b"})

	reading, err := an.Analyze(context.Background(), analyzerIdentity(), analyzerSeries(), types.LangSimplified)
	require.NoError(t, err)
	assert.Equal(t, []string{"model-a", "model-b"}, stub.attempts)
	assert.Equal(t, "蓝筹命格", reading.OverallNarrative)
	assert.Len(t, reading.TurningPoints, 3)
}

func TestAnalyzer_GarbageBodyIsNotAnError(t *testing.T) {
	stub := &scriptedAttempter{results: map[string]string{"model-a": "the spirits are unclear today"}}
	an := NewAnalyzer(stub, []string{"model-a"})

	reading, err := an.Analyze(context.Background(), analyzerIdentity(), analyzerSeries(), types.LangSimplified)
	require.NoError(t, err, "a received body is normalized, never surfaced as an error")
	assert.Equal(t, "the spirits are unclear today", reading.OverallNarrative)
}

func TestAnalyzer_AllCandidatesFailSurfaces(t *testing.T) {
	stub := &scriptedAttempter{}
	an := NewAnalyzer(stub, []string{"model-a", "model-b"})

	_, err := an.Analyze(context.Background(), analyzerIdentity(), analyzerSeries(), types.LangSimplified)
	require.ErrorIs(t, err, ErrAllCandidatesFailed)
}

func TestNewAnalyzer_DefaultsCandidateList(t *testing.T) {
	an := NewAnalyzer(&scriptedAttempter{}, nil)
	assert.Equal(t, DefaultModels(), an.models)
}
