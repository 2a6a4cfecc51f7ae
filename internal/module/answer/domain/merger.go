package domain

import (
	"context"
	"fmt"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
)

// Merge はベース/デルタ両インデックスへ同一クエリを発行し、候補を連結して返す。
// ベース側の候補が先、デルタ側が後。再ランキングも重複排除も行わないため、
// 返される候補数は 0 〜 2k 件になる（下流のゲートが実効的な件数を抑える）。
func Merge(ctx context.Context, base, delta corpus.Index, query string, k int) ([]corpus.Candidate, error) {
	candidates, err := base.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search base index: %w", err)
	}

	if delta != nil {
		deltaCandidates, err := delta.Search(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("failed to search delta index: %w", err)
		}
		candidates = append(candidates, deltaCandidates...)
	}

	return candidates, nil
}
