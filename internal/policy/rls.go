package policy

import (
	"fmt"
	"strings"
)

// Session settings the database expects to be populated for end-user connections.
const (
	pgUserID = "current_setting('app.user_id', true)"
	pgRole   = "current_setting('app.user_role', true)"
)

func pgIsRole(roles ...Role) string {
	quoted := make([]string, 0, len(roles))
	for _, role := range roles {
		quoted = append(quoted, "'"+role.String()+"'")
	}
	if len(quoted) == 1 {
		return pgRole + " = " + quoted[0]
	}
	return pgRole + " IN (" + strings.Join(quoted, ", ") + ")"
}

func pgOwner(table Table) string {
	return OwnerColumn(table) + "::text = " + pgUserID
}

func pgAny(exprs ...string) string {
	return "(" + strings.Join(exprs, " OR ") + ")"
}

func pgAll(exprs ...string) string {
	return "(" + strings.Join(exprs, " AND ") + ")"
}

// pgRule returns the USING/WITH CHECK expression for a table and operation; "" means no
// policy is created and the operation is denied for end users. Sessions without an
// assignable role match nothing.
func pgRule(table Table, op Operation) string {
	rule := tableRule(table, op)
	if rule == "" {
		return ""
	}
	return pgAll(pgIsRole(Roles()...), rule)
}

func tableRule(table Table, op Operation) string {
	admin := pgIsRole(RoleAdmin)
	owner := pgOwner(table)

	switch table {
	case TableLearningAnalytics:
		if op == OpSelect {
			return pgAny(admin, owner, pgAll(pgIsRole(RoleTeacher),
				"class_id IN (SELECT id FROM classes WHERE teacher_id::text = "+pgUserID+")"))
		}
	case TablePracticeSessions:
		switch op {
		case OpSelect, OpUpdate:
			return pgAny(admin, owner)
		case OpInsert:
			return owner
		default:
			return admin
		}
	case TablePayments:
		if op == OpSelect {
			return pgAny(admin, owner)
		}
	case TableBackupJobs, TableContentModeration:
		if table == TableContentModeration && (op == OpUpdate || op == OpDelete) {
			return ""
		}
		return admin
	case TableAuditLog:
		if op == OpSelect {
			return admin
		}
	case TableSupportTickets:
		staff := pgIsRole(RoleAdmin, RoleSupport)
		if op == OpDelete {
			return staff
		}
		return pgAny(staff, owner)
	case TableKnowledgeBase:
		if op == OpSelect {
			return pgAny("status = '"+StatusPublished+"'", pgIsRole(RoleAdmin, RoleTeacher, RoleSupport))
		}
		return pgIsRole(RoleAdmin, RoleTeacher)
	case TableProfiles:
		switch op {
		case OpSelect:
			return pgAny(owner, admin)
		case OpUpdate, OpDelete:
			return pgAll(admin, "NOT "+owner)
		}
	}
	return ""
}

// PostgresPolicies renders the rule set as idempotent PostgreSQL row-level security statements.
func PostgresPolicies() []string {
	statements := make([]string, 0, len(Tables())*5)
	for _, table := range Tables() {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", table))
		for _, op := range Operations() {
			name := fmt.Sprintf("%s_%s_policy", table, op)
			statements = append(statements, fmt.Sprintf("DROP POLICY IF EXISTS %s ON %s", name, table))

			rule := pgRule(table, op)
			if rule == "" {
				continue
			}

			clause := "USING (" + rule + ")"
			switch op {
			case OpInsert:
				clause = "WITH CHECK (" + rule + ")"
			case OpUpdate:
				clause += " WITH CHECK (" + rule + ")"
			}
			statements = append(statements, fmt.Sprintf("CREATE POLICY %s ON %s FOR %s %s",
				name, table, strings.ToUpper(string(op)), clause))
		}
	}
	return statements
}
