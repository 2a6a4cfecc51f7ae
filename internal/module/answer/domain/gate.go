package domain

import (
	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
)

// GateParams は確信度ゲートの調整パラメータ。
// MinHitsでエビデンスの量を、ConfidenceThresholdで質を別々に制御する。
type GateParams struct {
	// MinHits はカットオフ通過後に必要な最小候補数
	MinHits int

	// SimilarityCutoff は候補単位のスコア下限
	SimilarityCutoff float64

	// ConfidenceThreshold はスコア平均の下限
	ConfidenceThreshold float64
}

// Gate はマージ済み候補にフィルタと棄却判定を適用する。
// 判定手順:
//  1. スコアがカットオフ未満の候補を除外する（スコア欠損の候補は楽観的に残す）
//  2. 残存候補数がMinHits未満なら棄却
//  3. スコアが定義された候補の算術平均がしきい値未満なら棄却
//     （定義されたスコアがひとつも無ければこの判定はスキップして受理へ進む）
//
// 比較はいずれも厳密な未満（<）であり、しきい値ちょうどのスコアは受理される。
func Gate(candidates []corpus.Candidate, params GateParams) (accepted []corpus.Candidate, shouldAnswer bool) {
	accepted = make([]corpus.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Score != nil && *candidate.Score < params.SimilarityCutoff {
			continue
		}
		accepted = append(accepted, candidate)
	}

	if len(accepted) < params.MinHits {
		return accepted, false
	}

	var sum float64
	var scored int
	for _, candidate := range accepted {
		if candidate.Score != nil {
			sum += *candidate.Score
			scored++
		}
	}
	if scored > 0 {
		mean := sum / float64(scored)
		if mean < params.ConfidenceThreshold {
			return accepted, false
		}
	}

	return accepted, true
}
