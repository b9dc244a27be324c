package checkout

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
)

var ErrInvalidStateTransition = errors.New("checkout: invalid stage transition")

// Stage is the logical position of one checkout attempt. Nothing is persisted;
// the stage only lives for the request that drives it.
type Stage string

const (
	StageStarted        Stage = "started"
	StagePricedAndBuilt Stage = "priced_and_built"
	StageSubmitted      Stage = "submitted"
	StageApproved       Stage = "approved"
	StageDeclined       Stage = "declined"
	StageError          Stage = "error"
	StageCaptured       Stage = "captured"
	StageCaptureFailed  Stage = "capture_failed"
)

const IssueInstrumentDeclined = "INSTRUMENT_DECLINED"

var transitions = map[Stage][]Stage{
	StageStarted:        {StagePricedAndBuilt, StageError},
	StagePricedAndBuilt: {StageSubmitted, StageError},
	StageSubmitted:      {StageApproved, StageDeclined, StageError},
	StageApproved:       {StageCaptured, StageCaptureFailed},
}

// Attempt walks one checkout through its stages.
type Attempt struct {
	stage  Stage
	reason string
}

func NewAttempt() *Attempt { return &Attempt{stage: StageStarted} }

// ResumeApproved starts a capture attempt for an order the buyer has approved.
func ResumeApproved() *Attempt { return &Attempt{stage: StageApproved} }

func (a *Attempt) Stage() Stage   { return a.stage }
func (a *Attempt) Reason() string { return a.reason }

// Advance moves to next, recording why when the move is a failure.
func (a *Attempt) Advance(next Stage, reason string) error {
	for _, allowed := range transitions[a.stage] {
		if allowed == next {
			a.stage = next
			a.reason = reason
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, a.stage, next)
}

// ClassifyCreate maps a create-order response to the stage that follows Submitted.
// A 422 or a body carrying issue details is a business decline, not an error.
func ClassifyCreate(r *gateway.Result) (Stage, string) {
	s := r.Summary()
	switch {
	case r.Success() && s.FirstIssue() == "":
		return StageApproved, ""
	case r.HTTPStatus == http.StatusUnprocessableEntity || s.FirstIssue() != "":
		return StageDeclined, issueOr(s, "ORDER_DECLINED")
	default:
		return StageError, issueOr(s, http.StatusText(r.HTTPStatus))
	}
}

// ClassifyCapture maps a capture response to Captured or CaptureFailed. The
// reason tells a decline (INSTRUMENT_DECLINED) apart from other failures.
func ClassifyCapture(r *gateway.Result) (Stage, string) {
	s := r.Summary()
	if r.Success() && s.FirstIssue() == "" {
		return StageCaptured, ""
	}
	return StageCaptureFailed, issueOr(s, http.StatusText(r.HTTPStatus))
}

func issueOr(s gateway.Summary, fallback string) string {
	if issue := s.FirstIssue(); issue != "" {
		return issue
	}
	if s.Name != "" {
		return s.Name
	}
	return fallback
}
