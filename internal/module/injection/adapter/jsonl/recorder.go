package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	"github.com/jinford/kb-assistant/internal/module/injection/domain"
)

// maxLineSize はログ1行の最大サイズ（8MB）
const maxLineSize = 8 * 1024 * 1024

// Recorder はJSONLファイルへのインジェクションログの読み書きを提供する。
// レイアウトは <root>/<プロジェクト>/<正規化済みバージョン>/<YYYY-MM-DD>.jsonl。
type Recorder struct {
	root   string
	logger *slog.Logger

	// now はテストから時刻を差し替えるためのフック
	now func() time.Time
}

// NewRecorder は新しいRecorderを作成する
func NewRecorder(root string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		root:   root,
		logger: logger,
		now:    time.Now,
	}
}

// Record はdomain.Recorderの実装。
// ログへの追記が完了するまでインデックスには一切触れない（write-then-index）。
func (r *Recorder) Record(_ context.Context, target domain.Target, text string, metadata corpus.Metadata) (string, error) {
	dir := r.targetDir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create log directory: %v", domain.ErrStorageWrite, err)
	}

	now := r.now()
	record := domain.Record{
		ID:        uuid.New().String(),
		Timestamp: now,
		Text:      text,
		Metadata:  metadata,
	}

	line, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode record: %v", domain.ErrStorageWrite, err)
	}

	path := filepath.Join(dir, now.Format("2006-01-02")+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open log file: %v", domain.ErrStorageWrite, err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("%w: failed to append record: %v", domain.ErrStorageWrite, err)
	}

	return record.ID, nil
}

// Reconstruct はdomain.Recorderの実装。
// 対象のログファイルをすべて読み、1レコードにつき1Chunkを返す。
func (r *Recorder) Reconstruct(_ context.Context, target domain.Target) ([]corpus.Chunk, error) {
	dir := r.targetDir(target)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	sort.Strings(paths)

	var chunks []corpus.Chunk
	for _, path := range paths {
		fileChunks, err := r.readFile(path)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, fileChunks...)
	}
	return chunks, nil
}

// readFile は1ファイルを追記順に読み、パースできない行はスキップする
func (r *Recorder) readFile(path string) ([]corpus.Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var chunks []corpus.Chunk
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record domain.Record
		if err := json.Unmarshal(line, &record); err != nil {
			// 部分的な破損でも再構築全体は継続する
			r.logger.Warn("skipping unparsable injection record",
				"file", path,
				"line", lineNo,
				"error", err,
			)
			continue
		}

		id := record.ID
		if id == "" {
			id = uuid.New().String()
		}

		chunks = append(chunks, corpus.Chunk{
			ID:       id,
			Text:     record.Text,
			Metadata: record.Metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file %s: %w", path, err)
	}

	return chunks, nil
}

// Targets はdomain.Recorderの実装。
// ディレクトリ構成 <project>/<正規化済みバージョン> からターゲット一覧を復元する。
func (r *Recorder) Targets(_ context.Context) ([]domain.Target, error) {
	projects, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read injection root: %w", err)
	}

	var targets []domain.Target
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(r.root, project.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read project directory: %w", err)
		}
		for _, version := range versions {
			if !version.IsDir() {
				continue
			}
			targets = append(targets, domain.Target{
				Project: project.Name(),
				Version: corpus.RestoreVersion(version.Name()),
			})
		}
	}
	return targets, nil
}

func (r *Recorder) targetDir(target domain.Target) string {
	return filepath.Join(r.root, target.Project, corpus.NormalizeVersion(target.Version))
}

// インターフェース実装の確認
var _ domain.Recorder = (*Recorder)(nil)
