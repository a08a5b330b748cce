package workflow

import (
	"fmt"

	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

// TransitionError reports an attempted move that is not in the legal
// transition table. Unwraps to errors.ErrInvalidTransition. The entity is
// left unchanged; the caller must re-read and choose a legal action.
type TransitionError struct {
	Kind      string
	From      string
	Attempted string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s transition from %s to %s is not permitted", e.Kind, e.From, e.Attempted)
}

func (e *TransitionError) Unwrap() error { return errors.ErrInvalidTransition }

func illegalTransition(kind string, from, attempted string) error {
	return &TransitionError{Kind: kind, From: from, Attempted: attempted}
}

// reportTransitions is the legal review-state machine for reports.
// Approved and Rejected are terminal.
var reportTransitions = map[intel.ReportStatus][]intel.ReportStatus{
	intel.ReportPending: {
		intel.ReportApproved, intel.ReportRejected,
		intel.ReportUnderReview, intel.ReportRequiresMoreInfo,
	},
	intel.ReportUnderReview: {
		intel.ReportApproved, intel.ReportRejected, intel.ReportPending,
		intel.ReportRequiresMoreInfo,
	},
	intel.ReportRequiresMoreInfo: {
		intel.ReportApproved, intel.ReportRejected, intel.ReportPending,
		intel.ReportUnderReview,
	},
}

func reportTransitionAllowed(from, to intel.ReportStatus) bool {
	for _, s := range reportTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// eventTransitions mirrors the report machine. Archiving is handled
// separately: any active state may move to Archived, and nothing leaves it.
var eventTransitions = map[intel.EventStatus][]intel.EventStatus{
	intel.EventPending: {
		intel.EventApproved, intel.EventRejected,
		intel.EventUnderReview, intel.EventRequiresMoreInfo,
	},
	intel.EventUnderReview: {
		intel.EventApproved, intel.EventRejected, intel.EventPending,
		intel.EventRequiresMoreInfo,
	},
	intel.EventRequiresMoreInfo: {
		intel.EventApproved, intel.EventRejected, intel.EventPending,
		intel.EventUnderReview,
	},
}

func eventTransitionAllowed(from, to intel.EventStatus) bool {
	if to == intel.EventArchived {
		return from.IsActive()
	}
	for _, s := range eventTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ReviewVerdict is a reviewer's ruling on a pending report.
type ReviewVerdict string

const (
	VerdictApprove     ReviewVerdict = "APPROVE"
	VerdictReject      ReviewVerdict = "REJECT"
	VerdictStartReview ReviewVerdict = "START_REVIEW"
	VerdictRequestInfo ReviewVerdict = "REQUEST_INFO"
)

// Status returns the report status the verdict moves to.
func (v ReviewVerdict) Status() (intel.ReportStatus, error) {
	switch v {
	case VerdictApprove:
		return intel.ReportApproved, nil
	case VerdictReject:
		return intel.ReportRejected, nil
	case VerdictStartReview:
		return intel.ReportUnderReview, nil
	case VerdictRequestInfo:
		return intel.ReportRequiresMoreInfo, nil
	default:
		return "", intel.Invalid("verdict", fmt.Sprintf("unknown review verdict %q", v))
	}
}
