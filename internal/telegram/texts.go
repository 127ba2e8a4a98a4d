package telegram

import (
	"fmt"

	"social-poster/internal/admin"
)

const (
	textWelcome = "👋 أهلاً بك في بوت إنشاء منشورات التواصل الاجتماعي!\n\n" +
		"أرسل /generate لإنشاء منشور جديد لتويتر أو لينكدإن أو إنستغرام."
	textHelp = "📖 الأوامر المتاحة:\n" +
		"/generate - إنشاء منشور جديد\n" +
		"/cancel - إلغاء العملية الحالية\n" +
		"/quota - عرض رصيدك اليومي\n" +
		"/help - عرض هذه الرسالة"
	textAdminHelp = "\n\n🛠️ أوامر المشرف:\n" +
		"/admin - لوحة التحكم\n" +
		"/grant <id> [username] - إضافة مشرف\n" +
		"/revoke <id> - إزالة مشرف"
	textSubscribe         = "🔒 للاستفادة من البوت، يرجى الاشتراك في قناتنا أولاً ثم الضغط على زر التحقق."
	textSubscribeButton   = "📢 الاشتراك في القناة"
	textCheckButton       = "✅ تحققت من الاشتراك"
	textSubscribed        = "✅ تم التحقق من اشتراكك. أرسل /generate للبدء."
	textNotSubscribed     = "❌ لم يتم العثور على اشتراكك بعد."
	textSubscriptionError = "⚠️ تعذر التحقق من الاشتراك حالياً. يرجى المحاولة لاحقاً."
	textWaiting           = "⏳ جاري إنشاء المنشور، يرجى الانتظار..."
	textBusy              = "⏳ طلبك السابق قيد المعالجة، يرجى الانتظار."
	textUnknownCommand    = "❓ أمر غير معروف. أرسل /help لعرض الأوامر."
	textNotAdmin          = "⛔ هذا الأمر متاح للمشرفين فقط."
	textAdminMenu         = "🛠️ لوحة التحكم:"
	textStatsButton       = "📊 الإحصائيات"
	textResetButton       = "🔄 تصفير العدادات"
	textClearButton       = "🗑️ مسح سجل المنشورات"
	textBroadcastButton   = "📣 رسالة جماعية"
	textConfirmButton     = "✅ تأكيد"
	textCancelButton      = "❌ إلغاء"
	textExpired           = "⌛ انتهت صلاحية هذا الطلب."
	textAdminFailed       = "⚠️ تعذر تنفيذ العملية."
	textBroadcastPrompt   = "📣 أرسل نص الرسالة الجماعية الآن، أو /cancel للإلغاء."
	textBroadcastCancel   = "❌ تم إلغاء الرسالة الجماعية."
	textBroadcastStarted  = "📤 بدأ إرسال الرسالة الجماعية..."
	textGrantUsage        = "الاستخدام: /grant <id> [username]"
	textRevokeUsage       = "الاستخدام: /revoke <id>"
	textGranted           = "✅ تمت إضافة المشرف."
	textRevoked           = "✅ تمت إزالة المشرف."
	textFixedAdmin        = "⚠️ لا يمكن إزالة مشرف معرف في الإعدادات."
)

func textConfirm(a admin.Action) string {
	switch a {
	case admin.ActionResetCounts:
		return "⚠️ هل أنت متأكد من تصفير عدادات جميع المستخدمين؟"
	case admin.ActionClearLogs:
		return "⚠️ هل أنت متأكد من مسح سجل المنشورات بالكامل؟"
	}
	return "⚠️ هل أنت متأكد؟"
}

func textDone(a admin.Action, n int) string {
	switch a {
	case admin.ActionResetCounts:
		return fmt.Sprintf("✅ تم تصفير العدادات (%d مستخدم).", n)
	case admin.ActionClearLogs:
		return fmt.Sprintf("✅ تم مسح سجل المنشورات (%d منشور).", n)
	}
	return "✅ تم."
}

func textAborted(a admin.Action) string {
	switch a {
	case admin.ActionResetCounts:
		return "❌ تم إلغاء تصفير العدادات."
	case admin.ActionClearLogs:
		return "❌ تم إلغاء مسح السجل."
	}
	return "❌ تم الإلغاء."
}

func textBroadcastDone(r admin.BroadcastResult, interrupted bool) string {
	s := fmt.Sprintf("📬 انتهت الرسالة الجماعية.\nتم الإرسال: %d\nفشل: %d\nالإجمالي: %d", r.Succeeded, r.Failed, r.Total)
	if interrupted {
		s += "\n⚠️ توقف الإرسال قبل اكتماله."
	}
	return s
}
