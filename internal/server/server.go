package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/PhucNguyen204/regexcheck/internal/analysis"
	"github.com/PhucNguyen204/regexcheck/pkg/check"
	"github.com/PhucNguyen204/regexcheck/pkg/rules"
)

// errNoDatabase is returned by persistence handlers when the server runs
// without a database.
var errNoDatabase = errors.New("no database configured")

type AppServer struct {
	db       *sql.DB
	analyzer *analysis.Analyzer
	mu       sync.RWMutex // protects analyzer swap
}

// NewAppServer wraps an analyzer. db may be nil, in which case nothing is
// persisted and /api/v1/findings answers 503.
func NewAppServer(db *sql.DB, an *analysis.Analyzer) *AppServer {
	return &AppServer{db: db, analyzer: an}
}

// RegisterRoutes wires HTTP handlers.
func (s *AppServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/rules", s.handleRules)
	mux.HandleFunc("/api/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("/api/v1/check", s.handleCheck)
	mux.HandleFunc("/api/v1/findings", s.handleListFindings)
}

func (s *AppServer) currentAnalyzer() *analysis.Analyzer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzer
}

func (s *AppServer) swapAnalyzer(a *analysis.Analyzer) {
	s.mu.Lock()
	s.analyzer = a
	s.mu.Unlock()
}

// ---- Handlers ----

func (s *AppServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *AppServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentAnalyzer().Stats())
}

// handleRules supports GET (list the catalogue) and POST (replace rules).
// POST body: { rules: ["yaml...", "yaml..."] }
func (s *AppServer) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		an := s.currentAnalyzer()
		writeJSON(w, http.StatusOK, map[string]any{
			"repository": rules.Repository,
			"template":   rules.SimpleCheckTemplate.Key,
			"rules":      an.Ruleset().Rules(),
		})
	case http.MethodPost:
		var req struct {
			Rules []string `json:"rules"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
			return
		}
		var all []rules.Rule
		for i, doc := range req.Rules {
			rs, err := rules.LoadRuleYAML([]byte(doc))
			if err != nil {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("rules[%d]: %w", i, err))
				return
			}
			all = append(all, rs...)
		}
		n, err := s.ReplaceRules(r.Context(), all)
		if err != nil {
			code := http.StatusInternalServerError
			if isRuleError(err) {
				code = http.StatusBadRequest
			}
			writeErr(w, code, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rules": n})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type evaluateRequest struct {
	check.Check
	Text string `json:"text"`
}

// handleEvaluate runs one ad-hoc check. Configuration and syntax problems
// are client errors and the message is returned verbatim; a search the
// engine gives up on is 422. Ad-hoc patterns bypass the pattern cache.
func (s *AppServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	findings, err := req.Check.EvaluateOnce(req.Text)
	if err != nil {
		code := http.StatusBadRequest
		if check.IsMatchError(err) {
			code = http.StatusUnprocessableEntity
		}
		writeErr(w, code, err)
		return
	}
	if findings == nil {
		findings = []check.Finding{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": findings})
}

// handleCheck runs the loaded ruleset over a text and persists the issues in
// one transaction. Rules whose search failed are listed under "failed"; the
// issues of the other rules are still stored and returned.
func (s *AppServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Source string `json:"source"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.Source == "" {
		req.Source = "inline"
	}
	issues, failed := s.currentAnalyzer().AnalyzeText(req.Source, req.Text)
	if failed != nil {
		log.Printf("CHECK source=%s search failed: %v", req.Source, failed)
	}
	if len(issues) > 0 {
		log.Printf("ISSUES source=%s count=%d", req.Source, len(issues))
	}
	if s.db != nil && len(issues) > 0 {
		if err := s.insertFindings(r.Context(), issues); err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("persist findings: %w", err))
			return
		}
	}
	if issues == nil {
		issues = []analysis.Issue{}
	}
	resp := map[string]any{"source": req.Source, "issues": issues}
	if failed != nil {
		resp["failed"] = failed.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type findingRec struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"`
	RuleKey    string    `json:"rule_key"`
	RuleName   string    `json:"rule_name"`
	Severity   string    `json:"severity"`
	Line       *int      `json:"line,omitempty"`
	Column     int       `json:"column,omitempty"`
	Message    string    `json:"message"`
}

func (s *AppServer) handleListFindings(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeErr(w, http.StatusServiceUnavailable, errNoDatabase)
		return
	}
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	rows, err := s.db.QueryContext(r.Context(), `SELECT id, occurred_at, source, rule_key, rule_name, severity, line, col, message FROM findings ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()
	out := []findingRec{}
	for rows.Next() {
		var (
			f    findingRec
			line sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.OccurredAt, &f.Source, &f.RuleKey, &f.RuleName, &f.Severity, &line, &f.Column, &f.Message); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if line.Valid {
			n := int(line.Int64)
			f.Line = &n
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- Persistence ----

func (s *AppServer) InitSchema() error {
	if s.db == nil {
		return errNoDatabase
	}
	// Use MIGRATIONS_PATH if provided, otherwise try common defaults
	candidates := []string{}
	if mp := os.Getenv("MIGRATIONS_PATH"); mp != "" {
		candidates = append(candidates, mp)
	}
	candidates = append(candidates, "./migrations", "/srv/migrations")
	var lastErr error
	for _, p := range candidates {
		if _, statErr := os.Stat(p); statErr != nil {
			lastErr = statErr
			continue
		}
		if err := s.RunMigrations(p); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("init schema: no usable migrations path; last error: %v", lastErr)
}

// insertFindings stores issues atomically: either every row is written or
// none is.
func (s *AppServer) insertFindings(ctx context.Context, issues []analysis.Issue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, is := range issues {
		if _, err := tx.ExecContext(ctx, `INSERT INTO findings(occurred_at, source, rule_key, rule_name, severity, line, col, message) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			now, is.Source, is.RuleKey, is.RuleName, string(is.Severity), is.Line, is.Column, is.Message); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ---- Helpers ----

func isRuleError(err error) bool {
	return check.IsEvaluationError(err) ||
		errors.Is(err, rules.ErrInvalidRule) ||
		errors.Is(err, rules.ErrMissingKey) ||
		errors.Is(err, rules.ErrDuplicateKey) ||
		errors.Is(err, rules.ErrDuplicateName) ||
		errors.Is(err, rules.ErrNoRules)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON error: %v", err)
	}
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
