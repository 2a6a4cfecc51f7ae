package domain

import "errors"

// ErrCorpusNotFound は解決されたスラッグにベースコーパスが存在しない場合のエラー。
// 空のコンテキストで回答することはせず、必ずこのエラーを呼び出し元へ返す。
var ErrCorpusNotFound = errors.New("no base corpus for project/version")
