package composer

import "fmt"

const (
	textChoosePlatform    = "📱 اختر منصة التواصل الاجتماعي:"
	textChooseDialect     = "🗣️ اختر اللهجة:"
	textQuotaExceeded     = "⚠️ لقد وصلت إلى الحد الأقصى من الطلبات لهذا اليوم. حاول مجدداً غداً."
	textStorageFailed     = "⚠️ تعذر التحقق من رصيدك حالياً. يرجى المحاولة لاحقاً."
	textGenerationFailed  = "❌ حدث خطأ أثناء إنشاء المنشور. يرجى المحاولة مرة أخرى باستخدام /generate"
	textGenerationTimeout = "⏱️ استغرق إنشاء المنشور وقتاً أطول من المسموح. يرجى المحاولة مرة أخرى باستخدام /generate"
	textNoSession         = "ℹ️ استخدم /generate لإنشاء منشور جديد."
	textCancelled         = "❌ تم إلغاء العملية."
	textNothingToCancel   = "لا توجد عملية جارية."
	textEmptyContent      = "✍️ أرسل نص المنشور أو فكرته الرئيسية."
	textUnlimited         = "♾️ رصيدك غير محدود."
)

func textInvalidChoice(kind string, options []string) string {
	s := fmt.Sprintf("⚠️ %s غير معروفة. الخيارات المتاحة:", kind)
	for _, o := range options {
		s += "\n- " + o
	}
	return s
}

func textAskContent(platform string) string {
	return fmt.Sprintf("✍️ الآن، اكتب محتوى المنشور الذي تريد إنشاؤه لـ %s:\n(سيتم إعلامك عند اكتمال الإنشاء)", platform)
}

func textRemaining(left, limit int) string {
	return fmt.Sprintf("📊 تبقى لك %d من %d طلبات اليوم.", left, limit)
}

func textTooLong(length, limit int, platform string) string {
	return fmt.Sprintf("⚠️ تنبيه: طول المنشور %d حرفاً ويتجاوز الحد المسموح في %s (%d حرفاً). لم يتم اقتطاع أي جزء.", length, platform, limit)
}

func textSplit(parts, limit int) string {
	return fmt.Sprintf("📎 تم تقسيم المنشور إلى %d أجزاء لا يتجاوز كل منها %d حرفاً.", parts, limit)
}
