// Package access implements the two-dimensional access gate: a requester
// passes only if their role grants the required capability AND their
// clearance dominates the target's classification.
//
// Every check returns a Decision carrying a reason code; callers surface the
// reason for audit and never reduce a check to a bare boolean. The
// capability table is process-wide, immutable configuration.
package access

import (
	"fmt"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

// Capability is a named operation a role may hold.
type Capability string

const (
	CapReadReports    Capability = "READ_REPORTS"
	CapWriteReports   Capability = "WRITE_REPORTS"
	CapReviewReports  Capability = "REVIEW_REPORTS"
	CapApproveEvents  Capability = "APPROVE_EVENTS"
	CapViewClassified Capability = "VIEW_CLASSIFIED"
	CapViewAllIntel   Capability = "VIEW_ALL_INTEL"
	CapMakeDecisions  Capability = "MAKE_DECISIONS"
	CapFusionAnalysis Capability = "FUSION_ANALYSIS"
	CapManageUsers    Capability = "MANAGE_USERS"
	CapViewAuditLogs  Capability = "VIEW_AUDIT_LOGS"
)

// roleCapabilities is the fixed role-to-capability table. Observers read
// approved, low-classification content only; the approved-only restriction
// is enforced by the read-visibility rules below, not by a capability.
var roleCapabilities = map[intel.Role][]Capability{
	intel.RoleHQ: {
		CapReadReports, CapReviewReports, CapApproveEvents, CapViewClassified,
		CapViewAllIntel, CapMakeDecisions, CapFusionAnalysis, CapManageUsers,
		CapViewAuditLogs,
	},
	intel.RoleAnalystSOCMINT: {CapReadReports, CapWriteReports, CapViewClassified, CapFusionAnalysis},
	intel.RoleAnalystSIGINT:  {CapReadReports, CapWriteReports, CapViewClassified, CapFusionAnalysis},
	intel.RoleAnalystHUMINT:  {CapReadReports, CapWriteReports, CapViewClassified, CapFusionAnalysis},
	intel.RoleObserver:       {CapReadReports},
}

// Reason codes attached to every access decision.
type Reason string

const (
	Granted               Reason = "GRANTED"
	InsufficientRole      Reason = "INSUFFICIENT_ROLE"
	InsufficientClearance Reason = "INSUFFICIENT_CLEARANCE"
	InactiveUser          Reason = "INACTIVE_USER"
	UnknownUser           Reason = "UNKNOWN_USER"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Granted bool
	Reason  Reason
}

// DeniedError carries the denial reason. Unwraps to errors.ErrAccessDenied.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

func (e *DeniedError) Unwrap() error { return errors.ErrAccessDenied }

// Err converts a denying Decision into a DeniedError, or nil if granted.
func (d Decision) Err() error {
	if d.Granted {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// Gate performs capability and clearance checks for a fixed capability
// table. The zero value is not usable; construct with NewGate.
type Gate struct {
	capabilities map[intel.Role][]Capability
}

// NewGate returns a Gate over the built-in role-capability table.
func NewGate() *Gate {
	return &Gate{capabilities: roleCapabilities}
}

// HasCapability reports whether role holds cap in the table.
func (g *Gate) HasCapability(role intel.Role, cap Capability) bool {
	for _, c := range g.capabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// Check runs the full two-dimensional gate: the user must be active, the
// role must hold cap, and the user's clearance must dominate classification.
// Both dimensions are always evaluated in this order so the reported reason
// is stable.
func (g *Gate) Check(user *intel.User, cap Capability, classification classify.Level) Decision {
	if user == nil || !user.Active {
		return Decision{Reason: InactiveUser}
	}
	if !g.HasCapability(user.Role, cap) {
		return Decision{Reason: InsufficientRole}
	}
	if !classify.CanAccess(classification, user.Clearance) {
		return Decision{Reason: InsufficientClearance}
	}
	return Decision{Granted: true, Reason: Granted}
}

// CheckCapability gates on role capability alone, for operations with no
// classified target (e.g. creating a decision before it has content).
func (g *Gate) CheckCapability(user *intel.User, cap Capability) Decision {
	if user == nil || !user.Active {
		return Decision{Reason: InactiveUser}
	}
	if !g.HasCapability(user.Role, cap) {
		return Decision{Reason: InsufficientRole}
	}
	return Decision{Granted: true, Reason: Granted}
}

// CanSubmitType runs the write gate plus the discipline rule: analyst
// roles submit reports of their own collection discipline only.
func (g *Gate) CanSubmitType(user *intel.User, t intel.IntelType, classification classify.Level) Decision {
	d := g.Check(user, CapWriteReports, classification)
	if !d.Granted {
		return d
	}
	if want, ok := user.Role.Discipline(); ok && t != want {
		return Decision{Reason: InsufficientRole}
	}
	return d
}

// CanReadReport applies the read-visibility rules for a single report:
// clearance must dominate, the role must hold CapReadReports, and roles
// without CapViewAllIntel (observers) see approved material only.
func (g *Gate) CanReadReport(user *intel.User, r *intel.Report) Decision {
	d := g.Check(user, CapReadReports, r.Classification)
	if !d.Granted {
		return d
	}
	if !user.Role.CanViewAllIntelligence() && r.Status != intel.ReportApproved {
		return Decision{Reason: InsufficientRole}
	}
	return d
}

// CanReadEvent applies the read-visibility rules for a single event.
func (g *Gate) CanReadEvent(user *intel.User, e *intel.Event) Decision {
	d := g.Check(user, CapReadReports, e.Classification)
	if !d.Granted {
		return d
	}
	if !user.Role.CanViewAllIntelligence() && e.Status != intel.EventApproved {
		return Decision{Reason: InsufficientRole}
	}
	return d
}

// FilterReports returns the subset of reports the user may read. Filtering
// happens here, inside the core, so a denial of read can never be bypassed
// by a careless caller.
func (g *Gate) FilterReports(user *intel.User, reports []*intel.Report) []*intel.Report {
	out := make([]*intel.Report, 0, len(reports))
	for _, r := range reports {
		if g.CanReadReport(user, r).Granted {
			out = append(out, r)
		}
	}
	return out
}

// FilterEvents returns the subset of events the user may read.
func (g *Gate) FilterEvents(user *intel.User, events []*intel.Event) []*intel.Event {
	out := make([]*intel.Event, 0, len(events))
	for _, e := range events {
		if g.CanReadEvent(user, e).Granted {
			out = append(out, e)
		}
	}
	return out
}

// RedactReason decides how much of a denial to reveal to the requester. The
// sub-reason itself can leak classified context (knowing a record exists
// above your clearance is signal), so it is revealed only to
// reviewer-capable requesters unless revealAll is configured.
func RedactReason(requester *intel.User, d Decision, revealAll bool) Reason {
	if d.Granted {
		return d.Reason
	}
	if revealAll {
		return d.Reason
	}
	if requester != nil && requester.Active && requester.Role.CanReview() {
		return d.Reason
	}
	return ""
}
