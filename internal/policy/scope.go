package policy

// Filter is a SQL predicate restricting reads of a table to rows an identity may select.
type Filter struct {
	Clause string
	Args   []interface{}
}

var denyAll = Filter{Clause: "1 = 0"}

// OwnerColumn returns the column that holds the owning identity for table.
func OwnerColumn(table Table) string {
	switch table {
	case TableKnowledgeBase:
		return "author_id"
	case TableBackupJobs:
		return "requested_by"
	case TableAuditLog, TableContentModeration:
		return "actor_id"
	case TableProfiles:
		return "id"
	default:
		return "user_id"
	}
}

// ReadFilter mirrors the OpSelect branch of Evaluate as a WHERE clause. An empty Clause means
// every row is visible.
func ReadFilter(table Table, identity Identity) Filter {
	if identity.Service || identity.IsAdmin() {
		return Filter{}
	}
	if !identity.known() {
		return denyAll
	}

	owner := Filter{Clause: OwnerColumn(table) + " = ?", Args: []interface{}{identity.UserID}}

	switch table {
	case TableLearningAnalytics:
		if identity.Role == RoleTeacher {
			return Filter{
				Clause: "(user_id = ? OR class_id IN (SELECT id FROM classes WHERE teacher_id = ?))",
				Args:   []interface{}{identity.UserID, identity.UserID},
			}
		}
		return owner
	case TablePracticeSessions, TablePayments, TableProfiles:
		return owner
	case TableSupportTickets:
		if identity.Role == RoleSupport {
			return Filter{}
		}
		return owner
	case TableKnowledgeBase:
		if identity.Role.IsStaff() || identity.Role == RoleSupport {
			return Filter{}
		}
		return Filter{Clause: "status = ?", Args: []interface{}{StatusPublished}}
	}

	return denyAll
}
