package site

import (
	"errors"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// StageOutcome is the normalized result of one stage execution.
type StageOutcome struct {
	Stage     StageName
	Error     *StageError
	Result    StageResult
	IssueCode ReportIssueCode
	Severity  IssueSeverity
	Abort     bool
}

func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

func severityFromStageErrorKind(k StageErrorKind) IssueSeverity {
	if k == StageErrorWarning {
		return SeverityWarning
	}
	return SeverityError
}

// classifyStageResult converts the error returned by a stage into a StageOutcome.
// Errors that are not StageErrors are treated as fatal.
func classifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}
	var se *StageError
	if !errors.As(err, &se) {
		se = newFatalStageError(stage, err)
	}
	return StageOutcome{
		Stage:     stage,
		Error:     se,
		Result:    resultFromStageErrorKind(se.Kind),
		IssueCode: classifyIssueCode(se),
		Severity:  severityFromStageErrorKind(se.Kind),
		Abort:     se.Kind != StageErrorWarning,
	}
}

func classifyIssueCode(se *StageError) ReportIssueCode {
	if se.Kind == StageErrorCanceled {
		return IssueCanceled
	}
	switch {
	case errors.Is(se.Err, ErrContentDirMissing):
		return IssueContentMissing
	case errors.Is(se.Err, ErrNoDocuments):
		return IssueNoDocuments
	}
	switch ferrors.GetCategory(se.Err) {
	case ferrors.CategoryConfig:
		return IssueLayouts
	case ferrors.CategoryFileSystem:
		return IssueWriteFailure
	case ferrors.CategoryCache:
		return IssueCache
	}
	if se.Stage == StageIndex && se.Kind == StageErrorWarning {
		return IssueLastmod
	}
	return IssueGenericStageError
}
