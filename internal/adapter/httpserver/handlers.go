package httpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-mock-interview/internal/config"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/internal/usecase"
)

// Server aggregates handlers dependencies.
type Server struct {
	Cfg        config.Config
	Interview  usecase.InterviewService
	Reports    usecase.ReportService
	Resume     usecase.ResumeService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	// Extractor turns PDF and Word uploads into text. Nil limits uploads to
	// plain text and Markdown.
	Extractor TextExtractor
}

// TextExtractor converts a binary document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}

// NewServer constructs an HTTP server with all handlers and checks wired.
// Either check may be nil when the backing store is not configured.
func NewServer(cfg config.Config, interview usecase.InterviewService, reports usecase.ReportService, resume usecase.ResumeService, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Interview: interview, Reports: reports, Resume: resume, DBCheck: dbCheck, RedisCheck: redisCheck}
}

type qaRecordDTO struct {
	Question   string `json:"question" validate:"max=4000"`
	Answer     string `json:"answer" validate:"max=20000"`
	DurationMs int    `json:"durationMs" validate:"gte=0"`
	Round      int    `json:"round" validate:"min=1,max=3"`
	Score      int    `json:"score" validate:"min=0,max=100"`
}

func toHistory(in []qaRecordDTO) []domain.QARecord {
	out := make([]domain.QARecord, len(in))
	for i, qa := range in {
		out[i] = domain.QARecord(qa)
	}
	return out
}

type startRequest struct {
	Language      string                `json:"language"`
	ResumeProfile *domain.ResumeProfile `json:"resumeProfile" validate:"required"`
}

type turnRequest struct {
	QuestionID    string                `json:"questionId" validate:"max=64"`
	Question      string                `json:"question" validate:"required,max=4000"`
	Answer        string                `json:"answer" validate:"max=20000"`
	DurationMs    int                   `json:"durationMs" validate:"gte=0"`
	ResumeProfile *domain.ResumeProfile `json:"resumeProfile" validate:"required"`
	QAHistory     []qaRecordDTO         `json:"qaHistory" validate:"max=12,dive"`
	CurrentRound  int                   `json:"currentRound" validate:"required,min=1,max=3"`
	QuestionIndex int                   `json:"questionIndex" validate:"gte=0"`
	Language      string                `json:"language"`
}

type finalizeRequest struct {
	Language      string                `json:"language"`
	InterviewType string                `json:"interviewType" validate:"max=64"`
	ResumeProfile *domain.ResumeProfile `json:"resumeProfile" validate:"required"`
	QAHistory     []qaRecordDTO         `json:"qaHistory" validate:"max=12,dive"`
	DurationSec   int                   `json:"durationSec" validate:"gte=0"`
}

type classifyRequest struct {
	Language      string                `json:"language"`
	ResumeProfile *domain.ResumeProfile `json:"resumeProfile" validate:"required"`
}

type resumeRequest struct {
	Text     string `json:"text" validate:"required"`
	Language string `json:"language"`
}

// requestLanguage prefers the body field, then Accept-Language.
func requestLanguage(r *http.Request, field string) domain.Language {
	if field != "" {
		return domain.ParseLanguage(field)
	}
	al := strings.ToLower(r.Header.Get("Accept-Language"))
	if strings.HasPrefix(al, "zh") {
		return domain.LangZH
	}
	return domain.LangEN
}

func notAcceptable(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || a == "*/*" || strings.Contains(a, "application/json") {
		return false
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a}}})
	return true
}

// StartHandler classifies the resume and returns the first question.
func (s *Server) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r) {
			return
		}
		var req startRequest
		if vr := decodeJSON(w, r, &req); !vr.Valid {
			writeError(w, r, requestLanguage(r, ""), vr.asError(), vr.Errors)
			return
		}
		lang := requestLanguage(r, req.Language)
		res, err := s.Interview.StartInterview(r.Context(), *req.ResumeProfile, lang)
		if err != nil {
			writeError(w, r, lang, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"roleCategory":  res.Classification.Role,
			"topicBriefing": res.Classification.TopicBriefing,
			"question":      res.Question,
		})
	}
}

// TurnHandler submits one answer and returns the orchestrator's decision.
func (s *Server) TurnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r) {
			return
		}
		var req turnRequest
		if vr := decodeJSON(w, r, &req); !vr.Valid {
			writeError(w, r, requestLanguage(r, ""), vr.asError(), vr.Errors)
			return
		}
		lang := requestLanguage(r, req.Language)
		res, err := s.Interview.SubmitTurn(r.Context(), usecase.TurnInput{
			QuestionID:   req.QuestionID,
			Question:     req.Question,
			Answer:       req.Answer,
			DurationMs:   req.DurationMs,
			Profile:      *req.ResumeProfile,
			History:      toHistory(req.QAHistory),
			CurrentRound: req.CurrentRound,
			Language:     lang,
		})
		if err != nil {
			writeError(w, r, lang, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// FinalizeHandler compiles the final report.
func (s *Server) FinalizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r) {
			return
		}
		var req finalizeRequest
		if vr := decodeJSON(w, r, &req); !vr.Valid {
			writeError(w, r, requestLanguage(r, ""), vr.asError(), vr.Errors)
			return
		}
		lang := requestLanguage(r, req.Language)
		rep, err := s.Reports.Compile(r.Context(), usecase.ReportInput{
			Profile:       *req.ResumeProfile,
			History:       toHistory(req.QAHistory),
			DurationSec:   req.DurationSec,
			Language:      lang,
			InterviewType: req.InterviewType,
		})
		if err != nil {
			writeError(w, r, lang, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// ReportHandler returns a stored report.
func (s *Server) ReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		lang := requestLanguage(r, "")
		if vr := ValidateReportID(id); !vr.Valid {
			writeError(w, r, lang, vr.asError(), vr.Errors)
			return
		}
		rep, err := s.Reports.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, lang, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// ClassifyHandler runs the role classifier; it never calls a provider.
func (s *Server) ClassifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r) {
			return
		}
		var req classifyRequest
		if vr := decodeJSON(w, r, &req); !vr.Valid {
			writeError(w, r, requestLanguage(r, ""), vr.asError(), vr.Errors)
			return
		}
		writeJSON(w, http.StatusOK, usecase.Classify(*req.ResumeProfile, requestLanguage(r, req.Language)))
	}
}

// ResumeHandler extracts a ResumeProfile from a JSON {text} body or a
// multipart "resume" upload (.txt or .md).
func (s *Server) ResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r) {
			return
		}
		var text, langField string
		if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			var ok bool
			text, langField, ok = s.readResumeUpload(w, r)
			if !ok {
				return
			}
		} else {
			var req resumeRequest
			if vr := decodeJSON(w, r, &req); !vr.Valid {
				writeError(w, r, requestLanguage(r, ""), vr.asError(), vr.Errors)
				return
			}
			text, langField = req.Text, req.Language
		}
		lang := requestLanguage(r, langField)
		p, err := s.Resume.Analyze(r.Context(), text, lang)
		if err != nil {
			writeError(w, r, lang, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

var documentMIME = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func isTextExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func (s *Server) isDocumentExt(name string) bool {
	_, ok := documentMIME[strings.ToLower(filepath.Ext(name))]
	return ok && s.Extractor != nil
}

func (s *Server) readResumeUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	lang := requestLanguage(r, r.URL.Query().Get("language"))
	maxBytes := s.Cfg.MaxResumeKB * 1024
	if maxBytes <= 0 {
		maxBytes = 256 * 1024
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_kb": s.Cfg.MaxResumeKB}}})
			return "", "", false
		}
		writeError(w, r, lang, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
		return "", "", false
	}
	f, h, err := r.FormFile("resume")
	if err != nil {
		writeError(w, r, lang, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
		return "", "", false
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		writeError(w, r, lang, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
		return "", "", false
	}
	if int64(len(data)) > maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_kb": s.Cfg.MaxResumeKB}}})
		return "", "", false
	}
	text := string(data)
	mt := mimetype.Detect(data)
	switch {
	case isTextExt(h.Filename):
		if !strings.HasPrefix(mt.String(), "text/") {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)", Details: map[string]any{"mime": mt.String(), "filename": h.Filename}}})
			return "", "", false
		}
	case s.isDocumentExt(h.Filename):
		if !mt.Is(documentMIME[strings.ToLower(filepath.Ext(h.Filename))]) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)", Details: map[string]any{"mime": mt.String(), "filename": h.Filename}}})
			return "", "", false
		}
		extracted, err := s.Extractor.Extract(r.Context(), h.Filename, data)
		if err != nil {
			LoggerFrom(r).Warn("resume extraction failed", slog.String("file", h.Filename), slog.Any("error", err))
			writeError(w, r, lang, fmt.Errorf("%w: could not read resume document", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
			return "", "", false
		}
		text = extracted
	default:
		writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "unsupported media type (extension)", Details: map[string]any{"filename": h.Filename}}})
		return "", "", false
	}
	if v := r.FormValue("language"); v != "" {
		return text, v, true
	}
	return text, string(lang), true
}

// ReadyzHandler returns a readiness handler that pings the configured stores.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		targets := []struct {
			name string
			fn   func(context.Context) error
		}{{"db", s.DBCheck}, {"redis", s.RedisCheck}}
		checks := make([]check, 0, len(targets))
		ok := true
		for _, p := range targets {
			if p.fn == nil {
				continue
			}
			if err := p.fn(ctx); err != nil {
				ok = false
				checks = append(checks, check{Name: p.name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: p.name, OK: true})
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
