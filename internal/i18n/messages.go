// Package i18n renders user-facing API messages in Arabic or English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyAuthRequired       = "auth.required"
	KeyInvalidToken       = "auth.invalid_token"
	KeyProfileNotFound    = "profile.not_found"
	KeyInvalidPayload     = "request.invalid_payload"
	KeyUnknownAction      = "request.unknown_action"
	KeyNotFound           = "resource.not_found"
	KeyUnexpected         = "server.unexpected"
	KeyPermissionDenied   = "permission.denied"
	KeyAppendOnly         = "permission.append_only"
	KeyDenyCreateThread   = "forum.deny.create_thread"
	KeyDenyCreatePost     = "forum.deny.create_post"
	KeyDenyDeletePost     = "forum.deny.delete_post"
	KeyDenyToggleComments = "forum.deny.toggle_comments"
	KeyDenyPinThread      = "forum.deny.pin_thread"
	KeyDenyApprovePost    = "forum.deny.approve_post"
	KeyDenyReportPost     = "forum.deny.report_post"
	KeyDenyLikePost       = "forum.deny.like_post"
	KeyDenyRoleChange     = "profile.deny.role_change"
	KeyRateLimited        = "request.rate_limited"
	KeyNotifyForumReply   = "forum.notify.reply"
	KeyNotifyForumReport  = "forum.notify.report"
)

var entries = map[string][2]string{
	KeyAuthRequired:       {"يجب تسجيل الدخول", "authentication required"},
	KeyInvalidToken:       {"رمز الدخول غير صالح", "invalid token"},
	KeyProfileNotFound:    {"لم يتم العثور على الملف الشخصي", "profile not found"},
	KeyInvalidPayload:     {"بيانات الطلب غير صالحة", "invalid payload"},
	KeyUnknownAction:      {"إجراء غير معروف", "unknown action"},
	KeyNotFound:           {"العنصر غير موجود", "resource not found"},
	KeyUnexpected:         {"حدث خطأ غير متوقع", "an unexpected error occurred"},
	KeyPermissionDenied:   {"ليس لديك صلاحية لتنفيذ هذا الإجراء", "you do not have permission to perform this action"},
	KeyAppendOnly:         {"لا يمكن تعديل أو حذف هذا السجل", "this record cannot be modified or deleted"},
	KeyDenyCreateThread:   {"ليس لديك صلاحية لإنشاء موضوع في هذا الفصل", "you do not have permission to create a thread in this class"},
	KeyDenyCreatePost:     {"ليس لديك صلاحية للنشر في هذا الموضوع", "you do not have permission to post in this thread"},
	KeyDenyDeletePost:     {"ليس لديك صلاحية لحذف هذه المشاركة", "you do not have permission to delete this post"},
	KeyDenyToggleComments: {"فقط المدير يمكنه تفعيل أو تعطيل التعليقات", "only an admin can enable or disable comments"},
	KeyDenyPinThread:      {"ليس لديك صلاحية لتثبيت هذا الموضوع", "you do not have permission to pin this thread"},
	KeyDenyApprovePost:    {"ليس لديك صلاحية للموافقة على هذه المشاركة", "you do not have permission to approve this post"},
	KeyDenyReportPost:     {"ليس لديك صلاحية للإبلاغ عن هذه المشاركة", "you do not have permission to report this post"},
	KeyDenyLikePost:       {"ليس لديك صلاحية للتفاعل مع هذه المشاركة", "you do not have permission to react to this post"},
	KeyDenyRoleChange:     {"فقط المدير يمكنه تغيير أدوار المستخدمين الآخرين", "only an admin can change another user's role"},
	KeyRateLimited:        {"عدد كبير من الطلبات، حاول لاحقاً", "too many requests, try again later"},
	KeyNotifyForumReply:   {"رد جديد في %s", "New reply in %s"},
	KeyNotifyForumReport:  {"تم الإبلاغ عن مشاركة في فصلك للمراجعة", "A post in your class was reported for review"},
}

var supported = []language.Tag{language.Arabic, language.English}

// Translator resolves a locale from Accept-Language and renders message keys.
type Translator struct {
	catalog  catalog.Catalog
	matcher  language.Matcher
	fallback language.Tag
}

// New builds a translator whose fallback locale is defaultLocale ("ar" when unparsable).
func New(defaultLocale string) *Translator {
	builder := catalog.NewBuilder(catalog.Fallback(language.Arabic))
	for key, texts := range entries {
		_ = builder.SetString(language.Arabic, key, texts[0])
		_ = builder.SetString(language.English, key, texts[1])
	}

	fallback := language.Arabic
	if tag, err := language.Parse(defaultLocale); err == nil {
		if _, _, confidence := language.NewMatcher(supported).Match(tag); confidence >= language.High {
			fallback = tag
		}
	}

	return &Translator{
		catalog:  builder,
		matcher:  language.NewMatcher(supported),
		fallback: fallback,
	}
}

// Locale picks the supported language for an Accept-Language header value.
func (t *Translator) Locale(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.fallback
	}
	return supported[index]
}

// Message renders key for the locale negotiated from acceptLanguage.
func (t *Translator) Message(acceptLanguage, key string) string {
	return t.Messagef(acceptLanguage, key)
}

// Messagef renders key with args substituted into its placeholders.
func (t *Translator) Messagef(acceptLanguage, key string, args ...interface{}) string {
	printer := message.NewPrinter(t.Locale(acceptLanguage), message.Catalog(t.catalog))
	return printer.Sprintf(key, args...)
}
