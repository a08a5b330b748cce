package intel

import (
	"strings"

	"github.com/ravenfield/copx/errors"
)

// ReportStatus is the review state of an intelligence report.
type ReportStatus string

const (
	ReportPending          ReportStatus = "PENDING"
	ReportApproved         ReportStatus = "APPROVED"
	ReportRejected         ReportStatus = "REJECTED"
	ReportUnderReview      ReportStatus = "UNDER_REVIEW"
	ReportRequiresMoreInfo ReportStatus = "REQUIRES_MORE_INFO"
)

// ReportStatuses returns all defined report statuses.
func ReportStatuses() []ReportStatus {
	return []ReportStatus{ReportPending, ReportApproved, ReportRejected, ReportUnderReview, ReportRequiresMoreInfo}
}

// IsTerminal reports whether no further review transition is permitted and
// content edits are locked.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportApproved || s == ReportRejected
}

// EventStatus is the review state of a fused or manually created event.
type EventStatus string

const (
	EventPending          EventStatus = "PENDING"
	EventApproved         EventStatus = "APPROVED"
	EventRejected         EventStatus = "REJECTED"
	EventUnderReview      EventStatus = "UNDER_REVIEW"
	EventRequiresMoreInfo EventStatus = "REQUIRES_MORE_INFO"
	EventArchived         EventStatus = "ARCHIVED"
)

// EventStatuses returns all defined event statuses.
func EventStatuses() []EventStatus {
	return []EventStatus{EventPending, EventApproved, EventRejected, EventUnderReview, EventRequiresMoreInfo, EventArchived}
}

// IsActive reports whether the event still appears on the operating picture.
func (s EventStatus) IsActive() bool {
	return s != EventArchived && s != EventRejected
}

// RequiresAction reports whether the event awaits reviewer attention.
func (s EventStatus) RequiresAction() bool {
	return s == EventPending || s == EventUnderReview || s == EventRequiresMoreInfo
}

// ApprovalStatus is the approval state of a command decision.
type ApprovalStatus string

const (
	ApprovalPending          ApprovalStatus = "PENDING"
	ApprovalApproved         ApprovalStatus = "APPROVED"
	ApprovalRejected         ApprovalStatus = "REJECTED"
	ApprovalConditional      ApprovalStatus = "CONDITIONAL"
	ApprovalRequiresRevision ApprovalStatus = "REQUIRES_REVISION"
)

// ApprovalStatuses returns all defined approval statuses.
func ApprovalStatuses() []ApprovalStatus {
	return []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalConditional, ApprovalRequiresRevision}
}

// IsFinal reports whether the decision can no longer change. Final statuses
// are irreversible: there is no path out of APPROVED or REJECTED.
func (s ApprovalStatus) IsFinal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// RequiresAction reports whether the decision awaits its author's attention.
func (s ApprovalStatus) RequiresAction() bool {
	return s == ApprovalPending || s == ApprovalRequiresRevision
}

// ParseApprovalStatus maps a string to an ApprovalStatus, case-insensitively.
func ParseApprovalStatus(v string) (ApprovalStatus, error) {
	for _, s := range ApprovalStatuses() {
		if strings.EqualFold(v, string(s)) {
			return s, nil
		}
	}
	return "", errors.Wrapf(errors.ErrValidation, "unknown approval status %q", v)
}

// DecisionType categorizes a command decision.
type DecisionType string

const (
	DecisionReportApproval         DecisionType = "REPORT_APPROVAL"
	DecisionEventApproval          DecisionType = "EVENT_APPROVAL"
	DecisionOperational            DecisionType = "OPERATIONAL_DECISION"
	DecisionIntelligenceAssessment DecisionType = "INTELLIGENCE_ASSESSMENT"
	DecisionResourceAllocation     DecisionType = "RESOURCE_ALLOCATION"
	DecisionMissionAuthorization   DecisionType = "MISSION_AUTHORIZATION"
)

// DecisionTypes returns all defined decision types.
func DecisionTypes() []DecisionType {
	return []DecisionType{
		DecisionReportApproval,
		DecisionEventApproval,
		DecisionOperational,
		DecisionIntelligenceAssessment,
		DecisionResourceAllocation,
		DecisionMissionAuthorization,
	}
}

// RequiresJustification reports whether the type demands non-empty
// reasoning at creation. Operational decisions and mission authorizations
// commit forces or resources, so the reasoning trail is mandatory.
func (t DecisionType) RequiresJustification() bool {
	return t == DecisionOperational || t == DecisionMissionAuthorization
}

// ParseDecisionType maps a string to a DecisionType, case-insensitively.
func ParseDecisionType(v string) (DecisionType, error) {
	for _, t := range DecisionTypes() {
		if strings.EqualFold(v, string(t)) {
			return t, nil
		}
	}
	return "", errors.Wrapf(errors.ErrValidation, "unknown decision type %q", v)
}
