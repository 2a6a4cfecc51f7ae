package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// slugSeparator はプロジェクト名とバージョンの区切り文字
	slugSeparator = "-"

	// dotMarker はバージョン中の "." を置換するマーカー文字列
	dotMarker = "-dot-"
)

// ErrInvalidTarget はプロジェクト名またはバージョンがスラッグとして表現できない場合のエラー
var ErrInvalidTarget = errors.New("invalid project/version")

// ResolveSlug は (プロジェクト名, バージョン) からスラッグを導出する。
// バージョンが空の場合はプロジェクト名をそのまま返す。
func ResolveSlug(project, version string) string {
	if version == "" {
		return project
	}
	return project + slugSeparator + NormalizeVersion(version)
}

// NormalizeVersion はバージョン中の "." をマーカーに置換する
func NormalizeVersion(version string) string {
	return strings.ReplaceAll(version, ".", dotMarker)
}

// RestoreVersion はNormalizeVersionの逆変換を行う
func RestoreVersion(normalized string) string {
	return strings.ReplaceAll(normalized, dotMarker, ".")
}

// ValidateTarget はスラッグ導出が単射になる入力であることを検証する。
// マーカー文字列そのものを含む入力は逆変換が曖昧になるため拒否する。
func ValidateTarget(project, version string) error {
	if project == "" {
		return fmt.Errorf("%w: project is empty", ErrInvalidTarget)
	}
	if strings.Contains(project, dotMarker) {
		return fmt.Errorf("%w: project must not contain %q", ErrInvalidTarget, dotMarker)
	}
	if strings.Contains(version, dotMarker) {
		return fmt.Errorf("%w: version must not contain %q", ErrInvalidTarget, dotMarker)
	}
	return nil
}
