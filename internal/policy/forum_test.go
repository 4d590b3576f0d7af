package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanPerformForumParticipation(t *testing.T) {
	target := ForumTarget{ClassTeacherID: teacher.UserID, CommentsEnabled: true}
	paid := target
	paid.PaidEnrollment = true

	for _, action := range []ForumAction{ActionCreateThread, ActionCreatePost, ActionLikePost, ActionReportPost} {
		require.True(t, CanPerformForum(action, admin, target), action)
		require.True(t, CanPerformForum(action, teacher, target), action)
		require.False(t, CanPerformForum(action, Identity{UserID: "teacher-2", Role: RoleTeacher}, target), action)
		require.False(t, CanPerformForum(action, student, target), action)
		require.True(t, CanPerformForum(action, student, paid), action)
		require.False(t, CanPerformForum(action, support, paid), action)
	}
}

func TestCanPerformForumCommentsDisabled(t *testing.T) {
	target := ForumTarget{ClassTeacherID: teacher.UserID, PaidEnrollment: true, CommentsEnabled: false}

	require.False(t, CanPerformForum(ActionCreatePost, student, target))
	require.True(t, CanPerformForum(ActionCreatePost, teacher, target))
	require.True(t, CanPerformForum(ActionCreatePost, admin, target))
}

func TestCanPerformForumDeletePost(t *testing.T) {
	target := ForumTarget{ClassTeacherID: teacher.UserID, AuthorID: student.UserID}

	require.True(t, CanPerformForum(ActionDeletePost, student, target))
	require.True(t, CanPerformForum(ActionDeletePost, teacher, target))
	require.True(t, CanPerformForum(ActionDeletePost, admin, target))
	require.False(t, CanPerformForum(ActionDeletePost, other, target))
	require.False(t, CanPerformForum(ActionDeletePost, Identity{UserID: "teacher-2", Role: RoleTeacher}, target))
}

func TestCanPerformForumModeration(t *testing.T) {
	target := ForumTarget{ClassTeacherID: teacher.UserID, PaidEnrollment: true}

	require.True(t, CanPerformForum(ActionToggleComments, admin, target))
	require.False(t, CanPerformForum(ActionToggleComments, teacher, target))

	for _, action := range []ForumAction{ActionPinThread, ActionApprovePost} {
		require.True(t, CanPerformForum(action, admin, target), action)
		require.True(t, CanPerformForum(action, teacher, target), action)
		require.False(t, CanPerformForum(action, student, target), action)
	}
}

func TestCanPerformForumRejectsServiceAndUnknown(t *testing.T) {
	target := ForumTarget{ClassTeacherID: teacher.UserID, PaidEnrollment: true, CommentsEnabled: true}
	for _, action := range ForumActions() {
		require.True(t, action.Valid())
		require.False(t, CanPerformForum(action, service, target), action)
		require.False(t, CanPerformForum(action, Identity{}, target), action)
	}

	unknown := Identity{UserID: "legacy-1", Role: RoleUnknown}
	authored := ForumTarget{ClassTeacherID: unknown.UserID, PaidEnrollment: true, AuthorID: unknown.UserID, CommentsEnabled: true}
	for _, action := range ForumActions() {
		require.False(t, CanPerformForum(action, unknown, authored), action)
	}
	require.False(t, ForumAction("ban-user").Valid())
	require.False(t, CanPerformForum("ban-user", admin, target))
}

func TestCanReadForum(t *testing.T) {
	target := ForumTarget{ClassTeacherID: teacher.UserID}
	paid := target
	paid.PaidEnrollment = true

	require.True(t, CanReadForum(admin, target))
	require.True(t, CanReadForum(teacher, target))
	require.True(t, CanReadForum(student, paid))
	require.False(t, CanReadForum(student, target))
	require.False(t, CanReadForum(Identity{UserID: "teacher-2", Role: RoleTeacher}, paid))
	require.False(t, CanReadForum(support, paid))
	require.False(t, CanReadForum(service, paid))
	require.False(t, CanReadForum(Identity{UserID: student.UserID, Role: RoleUnknown}, paid))
}
