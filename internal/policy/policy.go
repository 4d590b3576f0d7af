// Package policy holds the row-level authorization rules for every protected table and the
// forum actions that run under the service credential. The same predicates back the GORM read
// scopes, the guarded repositories and the PostgreSQL policies rendered by PostgresPolicies.
package policy

import "errors"

// ErrDenied is returned when a write is rejected by a policy. It never carries row details.
var ErrDenied = errors.New("operation not permitted by row policy")

// Operation is a statement kind a policy is evaluated for.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operations lists every statement kind.
func Operations() []Operation {
	return []Operation{OpSelect, OpInsert, OpUpdate, OpDelete}
}

// Table names a protected table.
type Table string

const (
	TableLearningAnalytics Table = "learning_analytics"
	TablePracticeSessions  Table = "practice_sessions"
	TablePayments          Table = "payments"
	TableBackupJobs        Table = "backup_jobs"
	TableAuditLog          Table = "audit_log"
	TableSupportTickets    Table = "support_tickets"
	TableKnowledgeBase     Table = "knowledge_base_articles"
	TableContentModeration Table = "content_moderation"
	// TableProfiles carries the role column; the user_roles rules apply to it.
	TableProfiles Table = "profiles"
)

// Tables lists every protected table.
func Tables() []Table {
	return []Table{
		TableLearningAnalytics,
		TablePracticeSessions,
		TablePayments,
		TableBackupJobs,
		TableAuditLog,
		TableSupportTickets,
		TableKnowledgeBase,
		TableContentModeration,
		TableProfiles,
	}
}

// StatusPublished marks knowledge-base rows readable by everyone.
const StatusPublished = "published"

// Resource is the policy-relevant projection of a row.
type Resource struct {
	Table   Table
	OwnerID string
	ClassID string
	Status  string
}

// Relations carries relationship facts between the identity and the resource's class.
type Relations struct {
	TeacherOfClass bool
	PaidEnrollment bool
}

// Decision is the outcome of a policy evaluation.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Row is implemented by models stored in a protected table.
type Row interface {
	PolicyResource() Resource
}

// AppendOnly reports whether table rejects update and delete for every identity.
func AppendOnly(table Table) bool {
	return table == TableAuditLog || table == TableContentModeration
}

// Evaluate decides whether identity may perform op on resource.
func Evaluate(op Operation, identity Identity, resource Resource, rel Relations) Decision {
	if AppendOnly(resource.Table) && (op == OpUpdate || op == OpDelete) {
		return Deny
	}
	if identity.Service {
		return Allow
	}
	if !identity.known() {
		return Deny
	}

	owner := resource.OwnerID != "" && resource.OwnerID == identity.UserID

	switch resource.Table {
	case TableLearningAnalytics:
		if op != OpSelect {
			return Deny
		}
		return Decision(identity.IsAdmin() || owner || (identity.Role == RoleTeacher && rel.TeacherOfClass))

	case TablePracticeSessions:
		switch op {
		case OpSelect, OpUpdate:
			return Decision(identity.IsAdmin() || owner)
		case OpInsert:
			return Decision(owner)
		default:
			return Decision(identity.IsAdmin())
		}

	case TablePayments:
		if op != OpSelect {
			return Deny
		}
		return Decision(identity.IsAdmin() || owner)

	case TableBackupJobs:
		return Decision(identity.IsAdmin())

	case TableAuditLog:
		if op != OpSelect {
			return Deny
		}
		return Decision(identity.IsAdmin())

	case TableSupportTickets:
		staff := identity.IsAdmin() || identity.Role == RoleSupport
		switch op {
		case OpDelete:
			return Decision(staff)
		default:
			return Decision(staff || owner)
		}

	case TableKnowledgeBase:
		if op == OpSelect {
			return Decision(resource.Status == StatusPublished || identity.Role.IsStaff() || identity.Role == RoleSupport)
		}
		return Decision(identity.Role.IsStaff())

	case TableContentModeration:
		return Decision(identity.IsAdmin())

	case TableProfiles:
		switch op {
		case OpSelect:
			return Decision(owner || identity.IsAdmin())
		case OpInsert:
			return Deny
		default:
			return Decision(identity.IsAdmin() && !owner)
		}
	}

	return Deny
}

// Allowed is a convenience wrapper returning ErrDenied on a deny decision.
func Allowed(op Operation, identity Identity, row Row, rel Relations) error {
	if Evaluate(op, identity, row.PolicyResource(), rel) == Deny {
		return ErrDenied
	}
	return nil
}
