package policy

// ForumAction is one of the privileged forum operations.
type ForumAction string

const (
	ActionCreateThread   ForumAction = "create-thread"
	ActionCreatePost     ForumAction = "create-post"
	ActionDeletePost     ForumAction = "delete-post"
	ActionToggleComments ForumAction = "toggle-comments"
	ActionPinThread      ForumAction = "pin-thread"
	ActionApprovePost    ForumAction = "approve-post"
	ActionReportPost     ForumAction = "report-post"
	ActionLikePost       ForumAction = "like-post"
)

// ForumActions lists every supported action.
func ForumActions() []ForumAction {
	return []ForumAction{
		ActionCreateThread,
		ActionCreatePost,
		ActionDeletePost,
		ActionToggleComments,
		ActionPinThread,
		ActionApprovePost,
		ActionReportPost,
		ActionLikePost,
	}
}

// Valid reports whether a is a known action.
func (a ForumAction) Valid() bool {
	for _, known := range ForumActions() {
		if a == known {
			return true
		}
	}
	return false
}

// ForumTarget describes the class-scoped resource a forum action touches.
type ForumTarget struct {
	ClassTeacherID  string
	PaidEnrollment  bool
	AuthorID        string
	CommentsEnabled bool
}

func (t ForumTarget) teacherOfClass(identity Identity) bool {
	return identity.Role == RoleTeacher && t.ClassTeacherID != "" && t.ClassTeacherID == identity.UserID
}

// participant is the three-way class check: admin, owning teacher or paid student.
func (t ForumTarget) participant(identity Identity) bool {
	switch identity.Role {
	case RoleAdmin:
		return true
	case RoleTeacher:
		return t.teacherOfClass(identity)
	case RoleStudent:
		return t.PaidEnrollment
	case RoleSupport:
		return false
	default:
		return false
	}
}

// CanPerformForum is the single source of truth for forum action permissions.
func CanPerformForum(action ForumAction, identity Identity, target ForumTarget) bool {
	if identity.Service || !identity.known() {
		return false
	}

	switch action {
	case ActionCreateThread, ActionLikePost, ActionReportPost:
		return target.participant(identity)
	case ActionCreatePost:
		if !target.participant(identity) {
			return false
		}
		return target.CommentsEnabled || identity.Role != RoleStudent
	case ActionDeletePost:
		if target.AuthorID != "" && target.AuthorID == identity.UserID {
			return true
		}
		return identity.Role == RoleAdmin || target.teacherOfClass(identity)
	case ActionToggleComments:
		return identity.Role == RoleAdmin
	case ActionPinThread, ActionApprovePost:
		return identity.Role == RoleAdmin || target.teacherOfClass(identity)
	}

	return false
}

// CanReadForum reports whether identity may read a class's threads and posts.
func CanReadForum(identity Identity, target ForumTarget) bool {
	if identity.Service || !identity.known() {
		return false
	}
	return target.participant(identity)
}
