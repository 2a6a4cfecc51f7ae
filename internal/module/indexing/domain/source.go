package domain

import "context"

// SourceFile はインデックス対象の1ファイル
type SourceFile struct {
	// Path はソースルートからの相対パス
	Path string

	// Content はファイル本文
	Content []byte

	// ContentType は判定済みのMIMEタイプ
	ContentType string
}

// Source はベースコーパスの入力となるファイル群を提供するインターフェース。
// ローカルディレクトリとGitリポジトリの2実装がある。
type Source interface {
	// Name はソースの表示名（ログ用）を返す
	Name() string

	// Files はインデックス対象のテキストファイル一覧を返す。
	// バイナリや除外パターンに一致するファイルは含まれない。
	Files(ctx context.Context) ([]SourceFile, error)
}
