// Package analysis runs a ruleset over texts and file trees.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding"

	"github.com/PhucNguyen204/regexcheck/pkg/check"
	"github.com/PhucNguyen204/regexcheck/pkg/prefilter"
	"github.com/PhucNguyen204/regexcheck/pkg/rules"
)

// ErrFileTooLarge is returned by AnalyzeFile for files above MaxFileBytes.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Issue is a finding attributed to a rule and a source.
type Issue struct {
	Source   string         `json:"source"`
	RuleKey  string         `json:"rule_key"`
	RuleName string         `json:"rule_name"`
	Severity rules.Severity `json:"severity"`
	Line     *int           `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
	Message  string         `json:"message"`

	ruleIndex int
	seq       int
}

// Failure records a file for which at least one rule could not complete its
// search. Issues of the other rules are still reported.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Report is the outcome of AnalyzePaths.
type Report struct {
	Files          int           `json:"files"`
	Skipped        []string      `json:"skipped,omitempty"`
	Failed         []Failure     `json:"failed,omitempty"`
	Issues         []Issue       `json:"issues"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Stats are cumulative counters since the analyzer was created.
type Stats struct {
	Rules           int   `json:"rules"`
	Files           int64 `json:"files"`
	Texts           int64 `json:"texts"`
	Issues          int64 `json:"issues"`
	PrefilterHits   int64 `json:"prefilter_hits"`
	PrefilterMisses int64 `json:"prefilter_misses"`
}

type compiledRule struct {
	rule   rules.Rule
	check  *check.CompiledCheck
	filter *prefilter.Filter
}

// Analyzer evaluates every rule of a ruleset. It is immutable after New and
// safe for concurrent use.
type Analyzer struct {
	cfg     Config
	ruleset *rules.Ruleset
	rules   []compiledRule
	charset encoding.Encoding

	files  atomic.Int64
	texts  atomic.Int64
	issues atomic.Int64
}

// New compiles every rule of rs.
func New(rs *rules.Ruleset, cfg Config) (*Analyzer, error) {
	enc, err := lookupCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}
	pf := prefilter.DefaultConfig()
	pf.Enabled = cfg.EnablePrefilter

	a := &Analyzer{cfg: cfg, ruleset: rs, charset: enc}
	for _, r := range rs.Rules() {
		cc, err := r.Compile()
		if err != nil {
			return nil, err
		}
		a.rules = append(a.rules, compiledRule{
			rule:   r,
			check:  cc,
			filter: prefilter.New(cc.Pattern(), pf),
		})
	}
	log.Printf("analysis: compiled %d rules (workers=%d charset=%s prefilter=%v)",
		len(a.rules), cfg.workers(), cfg.Charset, cfg.EnablePrefilter)
	return a, nil
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

// Ruleset returns the rules the analyzer evaluates.
func (a *Analyzer) Ruleset() *rules.Ruleset { return a.ruleset }

// AnalyzeText evaluates every rule against text. Issues are ordered by rule
// then by discovery order. A rule whose search fails contributes no issues;
// the other rules still run and the failures are returned joined.
func (a *Analyzer) AnalyzeText(source, text string) ([]Issue, error) {
	a.texts.Add(1)
	var out []Issue
	var errs []error
	for i, cr := range a.rules {
		var findings []check.Finding
		if cr.filter.MayMatch(text) {
			var err error
			if findings, err = cr.check.Evaluate(text); err != nil {
				errs = append(errs, fmt.Errorf("%s: rule %s: %w", source, cr.rule.Key, err))
				continue
			}
		} else if cr.check.InvertMode() {
			findings = []check.Finding{cr.check.MissingFinding()}
		}
		for _, f := range findings {
			out = append(out, Issue{
				Source:    source,
				RuleKey:   cr.rule.Key,
				RuleName:  cr.rule.Name,
				Severity:  cr.rule.Severity,
				Line:      f.Line,
				Column:    f.Column,
				Message:   f.Message,
				ruleIndex: i,
				seq:       len(out),
			})
		}
	}
	a.issues.Add(int64(len(out)))
	return out, errors.Join(errs...)
}

// AnalyzeReader decodes r with the configured charset and analyses it. As with
// AnalyzeText, issues may be returned together with a search failure.
func (a *Analyzer) AnalyzeReader(source string, r io.Reader) ([]Issue, error) {
	text, err := decode(a.charset, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return a.AnalyzeText(source, text)
}

// AnalyzeFile analyses one file.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if a.cfg.MaxFileBytes > 0 && fi.Size() > a.cfg.MaxFileBytes {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrFileTooLarge, fi.Size(), a.cfg.MaxFileBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a.files.Add(1)
	return a.AnalyzeReader(path, f)
}

// AnalyzePaths analyses files and directory trees with a pool of workers.
// Oversized files are reported as skipped and files with a failed search as
// failed; other errors abort the run.
func (a *Analyzer) AnalyzePaths(ctx context.Context, paths ...string) (*Report, error) {
	start := time.Now()
	files, err := collectFiles(paths)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		path   string
		issues []Issue
		err    error
	}
	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < a.cfg.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				issues, err := a.AnalyzeFile(ctx, p)
				select {
				case results <- result{path: p, issues: issues, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, p := range files {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{}
	var firstErr error
	for res := range results {
		switch {
		case res.err == nil:
			report.Files++
			report.Issues = append(report.Issues, res.issues...)
		case errors.Is(res.err, ErrFileTooLarge):
			log.Printf("analysis: skipping %s: %v", res.path, res.err)
			report.Skipped = append(report.Skipped, res.path)
		case check.IsMatchError(res.err):
			log.Printf("analysis: %v", res.err)
			report.Files++
			report.Failed = append(report.Failed, Failure{Source: res.path, Error: res.err.Error()})
			report.Issues = append(report.Issues, res.issues...)
		case firstErr == nil:
			firstErr = res.err
			cancel()
		}
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return nil, firstErr
	}

	a.sortIssues(report.Issues)
	sort.Strings(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Source < report.Failed[j].Source })
	report.ProcessingTime = time.Since(start)
	log.Printf("analysis: %d files, %d issues, %d skipped, %d failed in %v",
		report.Files, len(report.Issues), len(report.Skipped), len(report.Failed), report.ProcessingTime)
	return report, nil
}

func (a *Analyzer) sortIssues(issues []Issue) {
	bySource := func(x, y Issue) bool {
		if x.Source != y.Source {
			return x.Source < y.Source
		}
		if x.ruleIndex != y.ruleIndex {
			return x.ruleIndex < y.ruleIndex
		}
		return x.seq < y.seq
	}
	less := bySource
	if a.cfg.Order == OrderByRule {
		less = func(x, y Issue) bool {
			if x.ruleIndex != y.ruleIndex {
				return x.ruleIndex < y.ruleIndex
			}
			return bySource(x, y)
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return less(issues[i], issues[j]) })
}

// Stats returns cumulative counters, prefilter counters summed over rules.
func (a *Analyzer) Stats() Stats {
	st := Stats{
		Rules:  len(a.rules),
		Files:  a.files.Load(),
		Texts:  a.texts.Load(),
		Issues: a.issues.Load(),
	}
	for _, cr := range a.rules {
		ps := cr.filter.Stats()
		st.PrefilterHits += ps.Hits
		st.PrefilterMisses += ps.Misses
	}
	return st
}

// collectFiles expands directories into their regular files, in lexical
// order, keeping plain file arguments as given.
func collectFiles(paths []string) ([]string, error) {
	var out []string
	for _, root := range paths {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
