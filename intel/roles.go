package intel

import (
	"strings"

	"github.com/ravenfield/copx/errors"
)

// Role is a user's fixed operational role. Roles are two things at once: a
// capability set (what operations the holder may perform) and, for analyst
// roles, a collection discipline (which report types the holder may submit).
type Role string

const (
	RoleHQ             Role = "HQ"
	RoleAnalystSOCMINT Role = "ANALYST_SOCMINT"
	RoleAnalystSIGINT  Role = "ANALYST_SIGINT"
	RoleAnalystHUMINT  Role = "ANALYST_HUMINT"
	RoleObserver       Role = "OBSERVER"
)

// Roles returns all defined roles.
func Roles() []Role {
	return []Role{RoleHQ, RoleAnalystSOCMINT, RoleAnalystSIGINT, RoleAnalystHUMINT, RoleObserver}
}

// ParseRole maps a string to a Role, case-insensitively.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", errors.Wrapf(errors.ErrValidation, "unknown role %q", s)
}

// IsAnalyst reports whether r is one of the three analyst specializations.
func (r Role) IsAnalyst() bool {
	return r == RoleAnalystSOCMINT || r == RoleAnalystSIGINT || r == RoleAnalystHUMINT
}

// CanSubmitReports reports whether r may author intelligence reports.
func (r Role) CanSubmitReports() bool {
	return r.IsAnalyst()
}

// CanReview reports whether r may move reports and events through review.
func (r Role) CanReview() bool {
	return r == RoleHQ
}

// CanMakeDecisions reports whether r may record command decisions.
func (r Role) CanMakeDecisions() bool {
	return r == RoleHQ
}

// CanViewAllIntelligence reports whether r may see unapproved material.
// Observers only ever see approved content.
func (r Role) CanViewAllIntelligence() bool {
	return r == RoleHQ || r.IsAnalyst()
}

// Discipline returns the intelligence type an analyst role collects, or
// ok=false for non-analyst roles.
func (r Role) Discipline() (IntelType, bool) {
	switch r {
	case RoleAnalystSOCMINT:
		return TypeSOCMINT, true
	case RoleAnalystSIGINT:
		return TypeSIGINT, true
	case RoleAnalystHUMINT:
		return TypeHUMINT, true
	}
	return "", false
}

// IntelType is a collection discipline tag carried by reports.
type IntelType string

const (
	TypeSOCMINT IntelType = "SOCMINT"
	TypeSIGINT  IntelType = "SIGINT"
	TypeHUMINT  IntelType = "HUMINT"
)

// IntelTypes returns all defined intelligence types.
func IntelTypes() []IntelType {
	return []IntelType{TypeSOCMINT, TypeSIGINT, TypeHUMINT}
}

// ParseIntelType maps a string to an IntelType, case-insensitively.
func ParseIntelType(s string) (IntelType, error) {
	for _, it := range IntelTypes() {
		if strings.EqualFold(s, string(it)) {
			return it, nil
		}
	}
	return "", errors.Wrapf(errors.ErrValidation, "unknown intelligence type %q", s)
}
