package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
)

func candidate(id string, score float64) corpus.Candidate {
	s := score
	return corpus.Candidate{
		Chunk: corpus.Chunk{ID: id, Text: "text-" + id},
		Score: &s,
	}
}

func unscoredCandidate(id string) corpus.Candidate {
	return corpus.Candidate{
		Chunk: corpus.Chunk{ID: id, Text: "text-" + id},
	}
}

func TestGate_CutoffDropsLowScores(t *testing.T) {
	candidates := []corpus.Candidate{
		candidate("high", 0.9),
		candidate("low", 0.3),
		candidate("mid", 0.7),
	}

	accepted, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             1,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.1,
	})

	assert.True(t, shouldAnswer)
	assert.Len(t, accepted, 2)
	assert.Equal(t, "high", accepted[0].Chunk.ID)
	assert.Equal(t, "mid", accepted[1].Chunk.ID)
}

func TestGate_MinHitsAbstainsRegardlessOfQuality(t *testing.T) {
	// スコアが高くても件数がMinHits未満なら棄却する
	candidates := []corpus.Candidate{
		candidate("only", 0.99),
	}

	accepted, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             2,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.1,
	})

	assert.False(t, shouldAnswer)
	assert.Len(t, accepted, 1)
}

func TestGate_MeanConfidenceBelowThresholdAbstains(t *testing.T) {
	candidates := []corpus.Candidate{
		candidate("a", 0.55),
		candidate("b", 0.56),
	}

	_, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             1,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.8,
	})

	assert.False(t, shouldAnswer)
}

func TestGate_AllAboveThresholdsAcceptsUnchanged(t *testing.T) {
	candidates := []corpus.Candidate{
		candidate("a", 0.8),
		candidate("b", 0.9),
		candidate("c", 0.7),
	}

	accepted, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             3,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.6,
	})

	// カットオフが既に満たされていれば入力集合がそのまま返る
	assert.True(t, shouldAnswer)
	assert.Equal(t, candidates, accepted)
}

func TestGate_ScoreExactlyAtThresholdIsAccepted(t *testing.T) {
	// 比較は厳密な未満（<）であり、しきい値ちょうどは通過する
	candidates := []corpus.Candidate{
		candidate("edge", 0.5),
	}

	accepted, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             1,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.5,
	})

	assert.True(t, shouldAnswer)
	assert.Len(t, accepted, 1)
}

func TestGate_UnscoredCandidatesSurviveCutoff(t *testing.T) {
	// スコア欠損の候補はカットオフで除外できず、平均計算からは除外される
	candidates := []corpus.Candidate{
		unscoredCandidate("no-score"),
		candidate("scored", 0.9),
	}

	accepted, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             2,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.8,
	})

	assert.True(t, shouldAnswer)
	assert.Len(t, accepted, 2)
}

func TestGate_NoScoredCandidatesSkipsMeanCheck(t *testing.T) {
	candidates := []corpus.Candidate{
		unscoredCandidate("a"),
		unscoredCandidate("b"),
	}

	_, shouldAnswer := Gate(candidates, GateParams{
		MinHits:             1,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.99,
	})

	// 平均が計算できない場合は平均チェックをスキップして受理する
	assert.True(t, shouldAnswer)
}

func TestGate_EmptyInputAbstains(t *testing.T) {
	accepted, shouldAnswer := Gate(nil, GateParams{
		MinHits:             1,
		SimilarityCutoff:    0.5,
		ConfidenceThreshold: 0.1,
	})

	assert.False(t, shouldAnswer)
	assert.Empty(t, accepted)
}
