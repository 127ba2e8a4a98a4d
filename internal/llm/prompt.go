package llm

import (
	"fmt"
	"strings"

	"social-poster/internal/platforms"
)

// Input is what the user asked for in one generate flow.
type Input struct {
	Text     string
	Platform platforms.Platform
	// Dialect is nil when the dialect step is disabled or skipped.
	Dialect *platforms.Dialect
}

const defaultLanguageRule = "باللغة العربية الفصحى فقط"

// SystemPrompt renders the writing rules for the chosen platform.
func SystemPrompt(p platforms.Platform, d *platforms.Dialect) string {
	lang := defaultLanguageRule
	extra := ""
	if d != nil {
		lang = "باللغة العربية"
		extra = "\n- " + d.Instruction
	}

	var b strings.Builder
	fmt.Fprintf(&b, "أنت مساعد كتابة محتوى عربي احترافي لمواقع التواصل الاجتماعي.\n")
	fmt.Fprintf(&b, "المطلوب: كتابة منشور لـ %s %s وفق المواصفات التالية:\n\n", p.Name, lang)
	fmt.Fprintf(&b, "- الطول: %s\n", p.LengthHint)
	b.WriteString("- الهيكل:\n")
	b.WriteString("  * مقدمة جذابة (1-2 جملة)\n")
	b.WriteString("  * 3 نقاط رئيسية (كل نقطة في سطر)\n")
	b.WriteString("  * خاتمة تحفيزية\n")
	fmt.Fprintf(&b, "- استخدم %s هاشتاقات في النهاية\n", p.Hashtags)
	fmt.Fprintf(&b, "- مسموح باستخدام 2-3 إيموجي مناسبة%s\n\n", extra)
	fmt.Fprintf(&b, "أمثلة لمنشورات جيدة:\n%s\n\n", p.Example)
	b.WriteString("الممنوعات:\n")
	b.WriteString("- أي كلمات غير عربية\n")
	b.WriteString("- رموز أو أحرف غريبة\n")
	b.WriteString("- محتوى غير منظم\n")
	return b.String()
}

// BuildMessages returns the system + user message pair for in.
func BuildMessages(in Input) []Message {
	return []Message{
		{Role: RoleSystem, Content: SystemPrompt(in.Platform, in.Dialect)},
		{Role: RoleUser, Content: in.Text},
	}
}
