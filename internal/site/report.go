package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/linkverify"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// Report file names inside the state directory.
const (
	ReportJSONFile = "build-report.json"
	ReportTextFile = "build-report.txt"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"  // warnings only, e.g. broken links
	OutcomePartial  BuildOutcome = "partial"  // some documents failed
	OutcomeFailed   BuildOutcome = "failed"   // fatal stage error
	OutcomeCanceled BuildOutcome = "canceled" // context canceled between stages
)

// Failure is one document that did not make it into the output.
type Failure struct {
	Stage   StageName `json:"stage"`
	Path    string    `json:"path"`
	DocID   string    `json:"doc_id,omitempty"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// LayoutInfo records how a layout used by the build was resolved.
type LayoutInfo struct {
	Source string `json:"source"` // embedded | file
	Parent string `json:"parent,omitempty"`
}

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// BuildReport captures the result of one build.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	Start         time.Time
	End           time.Time

	Discovered int // source files found
	Parsed     int // documents accepted into the content model
	Drafts     int // drafts skipped
	Rendered   int // documents rendered
	Generated  int // list, tag, feed and sitemap pages
	Changed    int // documents whose fingerprint differs from the previous build

	Written     int // output files rewritten
	Unchanged   int // output files left as they were
	Pruned      int // stale files removed
	StaticFiles int

	Failures    []Failure
	BrokenLinks []linkverify.BrokenLink

	Errors          []error // fatal errors causing build abortion
	Warnings        []error
	Issues          []ReportIssue
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Layouts         map[string]LayoutInfo

	Outcome BuildOutcome
}

// ReportIssueCode enumerates machine-parseable issue identifiers.
type ReportIssueCode string

const (
	IssueContentMissing    ReportIssueCode = "CONTENT_MISSING"
	IssueNoDocuments       ReportIssueCode = "NO_DOCUMENTS"
	IssueLayouts           ReportIssueCode = "LAYOUTS"
	IssueLastmod           ReportIssueCode = "LASTMOD_UNAVAILABLE"
	IssueWriteFailure      ReportIssueCode = "WRITE_FAILURE"
	IssueCache             ReportIssueCode = "CACHE"
	IssueOutputCollision   ReportIssueCode = "OUTPUT_COLLISION"
	IssueGeneratedPage     ReportIssueCode = "GENERATED_PAGE"
	IssueBrokenLink        ReportIssueCode = "BROKEN_LINK"
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured build-level problem. Per-document failures
// are kept separately in BuildReport.Failures.
type ReportIssue struct {
	Code     ReportIssueCode `json:"code"`
	Stage    StageName       `json:"stage"`
	Severity IssueSeverity   `json:"severity"`
	Message  string          `json:"message"`
}

func newBuildReport(buildID string, start time.Time) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         buildID,
		Start:           start,
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		Layouts:         make(map[string]LayoutInfo),
	}
}

// AddIssue appends a structured issue and mirrors err into Errors or
// Warnings based on severity.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, err error) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg})
	if err == nil {
		return
	}
	switch severity {
	case SeverityError:
		r.Errors = append(r.Errors, err)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, err)
	}
}

// AddFailure records a per-document failure.
func (r *BuildReport) AddFailure(stage StageName, path, docID string, err error) {
	r.Failures = append(r.Failures, Failure{
		Stage:   stage,
		Path:    path,
		DocID:   docID,
		Kind:    failureKind(err),
		Message: err.Error(),
	})
}

func failureKind(err error) string {
	var pe *content.ParseError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	var re *render.RenderError
	if errors.As(err, &re) {
		return string(re.Kind)
	}
	return "ReadError"
}

func (r *BuildReport) recordLayout(p *render.Rendered) {
	if p.Layout == "" {
		return
	}
	r.Layouts[p.Layout] = LayoutInfo{Source: string(p.Source), Parent: p.Parent}
}

// Failed returns the number of documents that failed to parse or render.
func (r *BuildReport) Failed() int { return len(r.Failures) }

// Duration returns the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *BuildReport) finish(end time.Time) { r.End = end }

// deriveOutcome sets Outcome from recorded errors, failures and warnings.
func (r *BuildReport) deriveOutcome() {
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
			}
		}
	case len(r.Failures) > 0:
		r.Outcome = OutcomePartial
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Err returns a classified error when documents failed but the build
// otherwise completed, and nil when every document succeeded.
func (r *BuildReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return ferrors.NewError(ferrors.CategoryDocuments, fmt.Sprintf("%d of %d documents failed", len(r.Failures), r.Discovered)).
		WithContext("build_id", r.BuildID).
		Build()
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("build=%s outcome=%s discovered=%d rendered=%d failed=%d drafts=%d generated=%d written=%d unchanged=%d pruned=%d static=%d broken_links=%d warnings=%d duration=%s",
		r.BuildID, r.Outcome, r.Discovered, r.Rendered, len(r.Failures), r.Drafts, r.Generated,
		r.Written, r.Unchanged, r.Pruned, r.StaticFiles, len(r.BrokenLinks), len(r.Warnings),
		r.Duration().Truncate(time.Millisecond))
}

// FailureLines returns one line per failed document, in the order the
// failures were recorded.
func (r *BuildReport) FailureLines() []string {
	lines := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		lines = append(lines, fmt.Sprintf("%s [%s/%s] %s", f.Path, f.Stage, f.Kind, f.Message))
	}
	return lines
}

// Persist writes build-report.json and build-report.txt into dir, each via a
// temporary file and rename.
func (r *BuildReport) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, ReportJSONFile), append(jb, '\n')); err != nil {
		return err
	}
	var txt strings.Builder
	txt.WriteString(r.Summary())
	txt.WriteByte('\n')
	for _, line := range r.FailureLines() {
		txt.WriteString("  " + line + "\n")
	}
	return writeFileAtomic(filepath.Join(dir, ReportTextFile), []byte(txt.String()))
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// BuildReportSerializable mirrors BuildReport with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion   int                     `json:"schema_version"`
	BuildID         string                  `json:"build_id"`
	Start           time.Time               `json:"start"`
	End             time.Time               `json:"end"`
	DurationMS      int64                   `json:"duration_ms"`
	Outcome         BuildOutcome            `json:"outcome"`
	Discovered      int                     `json:"discovered"`
	Parsed          int                     `json:"parsed"`
	Drafts          int                     `json:"drafts"`
	Rendered        int                     `json:"rendered"`
	Failed          int                     `json:"failed"`
	Generated       int                     `json:"generated"`
	Changed         int                     `json:"changed"`
	Written         int                     `json:"written"`
	Unchanged       int                     `json:"unchanged"`
	Pruned          int                     `json:"pruned"`
	StaticFiles     int                     `json:"static_files"`
	Failures        []Failure               `json:"failures"`
	BrokenLinks     []linkverify.BrokenLink `json:"broken_links"`
	Errors          []string                `json:"errors"`
	Warnings        []string                `json:"warnings"`
	Issues          []ReportIssue           `json:"issues"`
	StageDurations  map[string]int64        `json:"stage_durations_ms"`
	StageErrorKinds map[string]string       `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount   `json:"stage_counts"`
	Layouts         map[string]LayoutInfo   `json:"layouts"`
}

func (r *BuildReport) serializable() *BuildReportSerializable {
	s := &BuildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Start:           r.Start,
		End:             r.End,
		DurationMS:      r.Duration().Milliseconds(),
		Outcome:         r.Outcome,
		Discovered:      r.Discovered,
		Parsed:          r.Parsed,
		Drafts:          r.Drafts,
		Rendered:        r.Rendered,
		Failed:          len(r.Failures),
		Generated:       r.Generated,
		Changed:         r.Changed,
		Written:         r.Written,
		Unchanged:       r.Unchanged,
		Pruned:          r.Pruned,
		StaticFiles:     r.StaticFiles,
		Failures:        r.Failures,
		BrokenLinks:     r.BrokenLinks,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		Issues:          r.Issues,
		StageDurations:  make(map[string]int64, len(r.StageDurations)),
		StageErrorKinds: make(map[string]string, len(r.StageErrorKinds)),
		StageCounts:     make(map[string]StageCount, len(r.StageCounts)),
		Layouts:         r.Layouts,
	}
	if s.Failures == nil {
		s.Failures = []Failure{}
	}
	if s.BrokenLinks == nil {
		s.BrokenLinks = []linkverify.BrokenLink{}
	}
	if s.Issues == nil {
		s.Issues = []ReportIssue{}
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	for k, v := range r.StageDurations {
		s.StageDurations[k] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[string(k)] = string(v)
	}
	for k, v := range r.StageCounts {
		s.StageCounts[string(k)] = v
	}
	return s
}
