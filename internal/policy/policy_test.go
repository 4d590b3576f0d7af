package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	admin   = Identity{UserID: "admin-1", Role: RoleAdmin}
	teacher = Identity{UserID: "teacher-1", Role: RoleTeacher}
	student = Identity{UserID: "student-1", Role: RoleStudent}
	other   = Identity{UserID: "student-2", Role: RoleStudent}
	support = Identity{UserID: "support-1", Role: RoleSupport}
	service = ServiceIdentity()
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":       RoleAdmin,
		" Leerkracht": RoleTeacher,
		"teacher":     RoleTeacher,
		"leerling":    RoleStudent,
		"STUDENT":     RoleStudent,
		"support":     RoleSupport,
	}
	for input, expected := range cases {
		role, err := ParseRole(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, role, input)
	}

	_, err := ParseRole("superuser")
	require.Error(t, err)

	for _, role := range Roles() {
		parsed, err := ParseRole(role.String())
		require.NoError(t, err)
		require.Equal(t, role, parsed)
	}
}

func TestEvaluateOwnerScopedTables(t *testing.T) {
	for _, table := range []Table{TablePracticeSessions, TablePayments, TableSupportTickets} {
		row := Resource{Table: table, OwnerID: student.UserID}

		require.Equal(t, Allow, Evaluate(OpSelect, student, row, Relations{}), table)
		require.Equal(t, Deny, Evaluate(OpSelect, other, row, Relations{}), table)
		require.Equal(t, Allow, Evaluate(OpSelect, admin, row, Relations{}), table)
	}
}

func TestEvaluateLearningAnalytics(t *testing.T) {
	row := Resource{Table: TableLearningAnalytics, OwnerID: student.UserID, ClassID: "class-1"}

	require.Equal(t, Allow, Evaluate(OpSelect, student, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, other, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, teacher, row, Relations{}))
	require.Equal(t, Allow, Evaluate(OpSelect, teacher, row, Relations{TeacherOfClass: true}))
	require.Equal(t, Allow, Evaluate(OpSelect, admin, row, Relations{}))

	for _, op := range []Operation{OpInsert, OpUpdate, OpDelete} {
		for _, identity := range []Identity{admin, teacher, student} {
			require.Equal(t, Deny, Evaluate(op, identity, row, Relations{TeacherOfClass: true}), "%s %s", op, identity.Role)
		}
		require.Equal(t, Allow, Evaluate(op, service, row, Relations{}), op)
	}
}

func TestEvaluatePracticeSessions(t *testing.T) {
	own := Resource{Table: TablePracticeSessions, OwnerID: student.UserID}

	require.Equal(t, Allow, Evaluate(OpInsert, student, own, Relations{}))
	require.Equal(t, Deny, Evaluate(OpInsert, other, own, Relations{}))
	require.Equal(t, Deny, Evaluate(OpInsert, admin, own, Relations{}))
	require.Equal(t, Allow, Evaluate(OpUpdate, student, own, Relations{}))
	require.Equal(t, Allow, Evaluate(OpUpdate, admin, own, Relations{}))
	require.Equal(t, Deny, Evaluate(OpUpdate, teacher, own, Relations{}))
	require.Equal(t, Deny, Evaluate(OpDelete, student, own, Relations{}))
	require.Equal(t, Allow, Evaluate(OpDelete, admin, own, Relations{}))
}

func TestEvaluatePaymentsNeverDirectlyWritable(t *testing.T) {
	row := Resource{Table: TablePayments, OwnerID: student.UserID}
	for _, op := range []Operation{OpInsert, OpUpdate, OpDelete} {
		for _, identity := range []Identity{admin, teacher, student, support} {
			require.Equal(t, Deny, Evaluate(op, identity, row, Relations{}))
		}
	}
	require.Equal(t, Allow, Evaluate(OpInsert, service, row, Relations{}))
}

func TestEvaluateAdminOnlyTables(t *testing.T) {
	backup := Resource{Table: TableBackupJobs, OwnerID: admin.UserID}
	for _, op := range Operations() {
		require.Equal(t, Allow, Evaluate(op, admin, backup, Relations{}), op)
		require.Equal(t, Deny, Evaluate(op, teacher, backup, Relations{}), op)
		require.Equal(t, Deny, Evaluate(op, support, backup, Relations{}), op)
	}

	moderation := Resource{Table: TableContentModeration}
	require.Equal(t, Allow, Evaluate(OpSelect, admin, moderation, Relations{}))
	require.Equal(t, Allow, Evaluate(OpInsert, admin, moderation, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, teacher, moderation, Relations{}))
}

func TestEvaluateAuditLogIsAppendOnly(t *testing.T) {
	row := Resource{Table: TableAuditLog, OwnerID: admin.UserID}

	require.Equal(t, Allow, Evaluate(OpSelect, admin, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, teacher, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpInsert, admin, row, Relations{}))
	require.Equal(t, Allow, Evaluate(OpInsert, service, row, Relations{}))

	for _, identity := range []Identity{admin, teacher, student, support, service} {
		require.Equal(t, Deny, Evaluate(OpDelete, identity, row, Relations{}))
		require.Equal(t, Deny, Evaluate(OpUpdate, identity, row, Relations{}))
		require.Equal(t, Deny, Evaluate(OpDelete, identity, Resource{Table: TableContentModeration}, Relations{}))
	}
}

func TestEvaluateSupportTickets(t *testing.T) {
	row := Resource{Table: TableSupportTickets, OwnerID: student.UserID}

	require.Equal(t, Allow, Evaluate(OpInsert, student, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpInsert, other, row, Relations{}))
	require.Equal(t, Allow, Evaluate(OpUpdate, student, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpDelete, student, row, Relations{}))
	require.Equal(t, Allow, Evaluate(OpSelect, support, row, Relations{}))
	require.Equal(t, Allow, Evaluate(OpDelete, support, row, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, teacher, row, Relations{}))
}

func TestEvaluateKnowledgeBase(t *testing.T) {
	published := Resource{Table: TableKnowledgeBase, OwnerID: teacher.UserID, Status: StatusPublished}
	draft := Resource{Table: TableKnowledgeBase, OwnerID: teacher.UserID, Status: "draft"}

	require.Equal(t, Allow, Evaluate(OpSelect, student, published, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, student, draft, Relations{}))
	require.Equal(t, Allow, Evaluate(OpSelect, teacher, draft, Relations{}))
	require.Equal(t, Allow, Evaluate(OpInsert, teacher, draft, Relations{}))
	require.Equal(t, Deny, Evaluate(OpInsert, student, draft, Relations{}))
	require.Equal(t, Deny, Evaluate(OpUpdate, support, published, Relations{}))
}

func TestEvaluateProfileRoleWrites(t *testing.T) {
	for _, identity := range []Identity{teacher, student, support, other} {
		target := Resource{Table: TableProfiles, OwnerID: student.UserID}
		require.Equal(t, Deny, Evaluate(OpUpdate, identity, target, Relations{}), identity.UserID)

		self := Resource{Table: TableProfiles, OwnerID: identity.UserID}
		require.Equal(t, Deny, Evaluate(OpUpdate, identity, self, Relations{}), identity.UserID)
		require.Equal(t, Allow, Evaluate(OpSelect, identity, self, Relations{}), identity.UserID)
	}

	require.Equal(t, Allow, Evaluate(OpUpdate, admin, Resource{Table: TableProfiles, OwnerID: student.UserID}, Relations{}))
	require.Equal(t, Deny, Evaluate(OpUpdate, admin, Resource{Table: TableProfiles, OwnerID: admin.UserID}, Relations{}))
	require.Equal(t, Deny, Evaluate(OpSelect, student, Resource{Table: TableProfiles, OwnerID: other.UserID}, Relations{}))
}

func TestEvaluateDeniesAnonymousAndUnknownRoles(t *testing.T) {
	anonymous := Identity{}
	unknown := Identity{UserID: "x", Role: RoleUnknown}
	for _, table := range Tables() {
		for _, op := range Operations() {
			require.Equal(t, Deny, Evaluate(op, anonymous, Resource{Table: table, Status: "draft"}, Relations{}))
			owned := Resource{Table: table, OwnerID: unknown.UserID, Status: StatusPublished}
			require.Equal(t, Deny, Evaluate(op, unknown, owned, Relations{TeacherOfClass: true, PaidEnrollment: true}), "%s %s", table, op)
		}
		require.Equal(t, denyAll, ReadFilter(table, unknown), table)
	}
	require.Equal(t, Deny, Evaluate(OpSelect, admin, Resource{Table: "unknown_table"}, Relations{}))
}

func TestReadFilter(t *testing.T) {
	require.Empty(t, ReadFilter(TablePayments, admin).Clause)
	require.Empty(t, ReadFilter(TableAuditLog, service).Clause)
	require.Equal(t, "1 = 0", ReadFilter(TableAuditLog, teacher).Clause)
	require.Equal(t, "1 = 0", ReadFilter(TablePayments, Identity{}).Clause)

	owner := ReadFilter(TablePayments, student)
	require.Equal(t, "user_id = ?", owner.Clause)
	require.Equal(t, []interface{}{student.UserID}, owner.Args)

	require.Contains(t, ReadFilter(TableLearningAnalytics, teacher).Clause, "teacher_id = ?")
	require.Equal(t, "status = ?", ReadFilter(TableKnowledgeBase, student).Clause)
	require.Empty(t, ReadFilter(TableSupportTickets, support).Clause)
	require.Equal(t, "id = ?", ReadFilter(TableProfiles, student).Clause)
}

func TestPostgresPolicies(t *testing.T) {
	statements := PostgresPolicies()
	require.NotEmpty(t, statements)

	joined := map[string]bool{}
	for _, stmt := range statements {
		joined[stmt] = true
	}

	for _, table := range Tables() {
		require.True(t, joined["ALTER TABLE "+string(table)+" ENABLE ROW LEVEL SECURITY"], table)
	}

	for stmt := range joined {
		require.NotContains(t, stmt, "CREATE POLICY audit_log_delete_policy")
		require.NotContains(t, stmt, "CREATE POLICY audit_log_update_policy")
		require.NotContains(t, stmt, "CREATE POLICY payments_insert_policy")
	}
	require.True(t, joined["CREATE POLICY backup_jobs_select_policy ON backup_jobs FOR SELECT USING ("+
		"(current_setting('app.user_role', true) IN ('admin', 'leerkracht', 'leerling', 'support') AND "+
		"current_setting('app.user_role', true) = 'admin'))"])
}
