package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	answerapp "github.com/jinford/kb-assistant/internal/module/answer/application"
	answerdomain "github.com/jinford/kb-assistant/internal/module/answer/domain"
	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	injectionapp "github.com/jinford/kb-assistant/internal/module/injection/application"
	injection "github.com/jinford/kb-assistant/internal/module/injection/domain"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
)

// AnswerUsecase は質問応答操作のインターフェース
type AnswerUsecase interface {
	Answer(ctx context.Context, params answerapp.AnswerParams) (string, error)
	Elaborate(ctx context.Context, params answerapp.ElaborateParams) (string, error)
}

// InjectUsecase はコンテンツ投入操作のインターフェース
type InjectUsecase interface {
	Inject(ctx context.Context, params injectionapp.InjectParams) (string, error)
}

// IndexCounter はヘルスチェック用にロード済みインデックス数を提供するインターフェース
type IndexCounter interface {
	Counts() (baseCount, deltaCount int)
}

// Handler はHTTP APIのハンドラ群を保持する
type Handler struct {
	answers AnswerUsecase
	inject  InjectUsecase
	indexes IndexCounter
	logger  *slog.Logger
}

// NewHandler は新しいHandlerを作成する
func NewHandler(answers AnswerUsecase, inject InjectUsecase, indexes IndexCounter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		answers: answers,
		inject:  inject,
		indexes: indexes,
		logger:  logger,
	}
}

// Routes はハンドラを登録したServeMuxを返す
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/answer", h.handleAnswer)
	mux.HandleFunc("POST /v1/elaborate", h.handleElaborate)
	mux.HandleFunc("POST /v1/inject", h.handleInject)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

type answerRequest struct {
	Project    string `json:"project"`
	Version    string `json:"version"`
	ThreadSlug string `json:"thread_slug"`
	Message    string `json:"message"`
}

type answerResponse struct {
	TextResponse string `json:"textResponse"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Project == "" || req.Version == "" || req.ThreadSlug == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "project, version, thread_slug and message are required")
		return
	}

	response, err := h.answers.Answer(r.Context(), answerapp.AnswerParams{
		Project:    req.Project,
		Version:    req.Version,
		ThreadSlug: req.ThreadSlug,
		Message:    req.Message,
	})
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{TextResponse: response})
}

type elaborateRequest struct {
	ThreadSlug string `json:"thread_slug"`
	Message    string `json:"message"`
}

func (h *Handler) handleElaborate(w http.ResponseWriter, r *http.Request) {
	var req elaborateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ThreadSlug == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "thread_slug and message are required")
		return
	}

	response, err := h.answers.Elaborate(r.Context(), answerapp.ElaborateParams{
		ThreadSlug: req.ThreadSlug,
		Message:    req.Message,
	})
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{TextResponse: response})
}

type injectRequest struct {
	Project  string          `json:"project"`
	Version  string          `json:"version"`
	Text     string          `json:"textContent"`
	Metadata corpus.Metadata `json:"metadata"`
}

type injectResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleInject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Project == "" || req.Version == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "project, version and textContent are required")
		return
	}

	id, err := h.inject.Inject(r.Context(), injectionapp.InjectParams{
		Project:  req.Project,
		Version:  req.Version,
		Text:     req.Text,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	h.logger.Info("content injected via api", "project", req.Project, "recordID", id)
	writeJSON(w, http.StatusOK, injectResponse{Status: "ok"})
}

type healthResponse struct {
	Status       string `json:"status"`
	BaseIndexes  int    `json:"base_indexes"`
	DeltaIndexes int    `json:"delta_indexes"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	baseCount, deltaCount := h.indexes.Counts()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		BaseIndexes:  baseCount,
		DeltaIndexes: deltaCount,
	})
}

// writeUsecaseError はユースケースのエラーをHTTPステータスへ変換する
func (h *Handler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, corpus.ErrInvalidTarget):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, answerdomain.ErrCorpusNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, llm.ErrProvider):
		h.logger.Error("llm provider failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "upstream llm provider failure")
	case errors.Is(err, injection.ErrStorageWrite):
		h.logger.Error("injection log write failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist injected content")
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
