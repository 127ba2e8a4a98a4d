// Package platforms describes the supported social networks and the optional
// dialect variants, and matches free-form user input against them.
package platforms

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Platform carries the writing rules for one target network.
type Platform struct {
	Key        string
	Name       string
	Aliases    []string
	MaxChars   int
	LengthHint string
	Hashtags   string
	MaxTokens  int
	Example    string
}

// Dialect is a regional style variant applied to generated text.
type Dialect struct {
	Key         string
	Name        string
	Instruction string
}

// Catalog is the ordered set of platforms and dialects the bot offers.
type Catalog struct {
	platforms []Platform
	dialects  []Dialect
	fold      cases.Caser
}

// NewCatalog builds the default catalog. limits overrides MaxChars by
// platform key; missing keys keep the built-in value.
func NewCatalog(limits map[string]int) *Catalog {
	ps := defaultPlatforms()
	for i := range ps {
		if v, ok := limits[ps[i].Key]; ok && v > 0 {
			ps[i].MaxChars = v
		}
	}
	return &Catalog{platforms: ps, dialects: defaultDialects(), fold: cases.Fold()}
}

func (c *Catalog) Platforms() []Platform { return append([]Platform(nil), c.platforms...) }

func (c *Catalog) Dialects() []Dialect { return append([]Dialect(nil), c.dialects...) }

// PlatformNames returns display names in keyboard order.
func (c *Catalog) PlatformNames() []string {
	out := make([]string, len(c.platforms))
	for i, p := range c.platforms {
		out[i] = p.Name
	}
	return out
}

func (c *Catalog) DialectNames() []string {
	out := make([]string, len(c.dialects))
	for i, d := range c.dialects {
		out[i] = d.Name
	}
	return out
}

// Platform looks a platform up by its key.
func (c *Catalog) Platform(key string) (Platform, bool) {
	for _, p := range c.platforms {
		if p.Key == key {
			return p, true
		}
	}
	return Platform{}, false
}

func (c *Catalog) Dialect(key string) (Dialect, bool) {
	for _, d := range c.dialects {
		if d.Key == key {
			return d, true
		}
	}
	return Dialect{}, false
}

// MatchPlatform resolves user text (display name, key or alias) to a platform.
func (c *Catalog) MatchPlatform(text string) (Platform, bool) {
	in := c.normalize(text)
	if in == "" {
		return Platform{}, false
	}
	for _, p := range c.platforms {
		if c.normalize(p.Name) == in || c.normalize(p.Key) == in {
			return p, true
		}
		for _, a := range p.Aliases {
			if c.normalize(a) == in {
				return p, true
			}
		}
	}
	return Platform{}, false
}

func (c *Catalog) MatchDialect(text string) (Dialect, bool) {
	in := c.normalize(text)
	if in == "" {
		return Dialect{}, false
	}
	for _, d := range c.dialects {
		if c.normalize(d.Name) == in || c.normalize(d.Key) == in {
			return d, true
		}
	}
	return Dialect{}, false
}

// normalize applies NFKC, case folding and strips tatweel and surrounding
// whitespace so "  LinkedIn ", "linkedin" and "لينكــدإن" compare equal.
func (c *Catalog) normalize(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ـ", "")
	return c.fold.String(s)
}

func defaultPlatforms() []Platform {
	return []Platform{
		{
			Key:        "twitter",
			Name:       "تويتر",
			Aliases:    []string{"Twitter", "X", "تويتر (X)"},
			MaxChars:   280,
			LengthHint: "180-280 حرفاً",
			Hashtags:   "2-3",
			MaxTokens:  300,
			Example: "🌱 نصائح لريادة الأعمال:\n" +
				"- ابدأ صغيراً فكر كبيراً\n" +
				"- استثمر في بناء العلاقات\n" +
				"- تعلم من الأخطاء\n" +
				"النجاح رحلة وليس وجهة! #ريادة_أعمال #تطوير_ذات",
		},
		{
			Key:        "linkedin",
			Name:       "لينكدإن",
			Aliases:    []string{"LinkedIn", "لينكدان", "لينكد إن"},
			MaxChars:   3000,
			LengthHint: "300-600 حرفاً",
			Hashtags:   "3-5",
			MaxTokens:  500,
			Example: "🚀 كيف تبني استراتيجية تسويقية ناجحة؟\n\n" +
				"1. حدد جمهورك المستهدف بدقة\n" +
				"2. أنشئ محتوى ذو قيمة حقيقية\n" +
				"3. استخدم البيانات لتحسين أدائك\n\n" +
				"شاركنا تجربتك في التعليقات! #تسويق_رقمي #استراتيجيات_تسويقية #نمو_الأعمال",
		},
		{
			Key:        "instagram",
			Name:       "إنستغرام",
			Aliases:    []string{"Instagram", "انستغرام", "انستقرام"},
			MaxChars:   2200,
			LengthHint: "220-400 حرفاً",
			Hashtags:   "4-5",
			MaxTokens:  400,
			Example: "✨ وصفة سهلة لتحضير الكعك 🍰\n\n" +
				"- كوب طحين\n" +
				"- ملعقة بيكنج باودر\n" +
				"- نصف كوب سكر\n" +
				"- بيضة واحدة\n\n" +
				"اخلط المكونات جيداً واخبزها على 180 درجة\n" +
				"#وصفات #حلويات #مطبخ #وصفات_سهلة",
		},
	}
}

func defaultDialects() []Dialect {
	return []Dialect{
		{Key: "msa", Name: "فصحى", Instruction: "اكتب باللغة العربية الفصحى."},
		{Key: "gulf", Name: "خليجي", Instruction: "اكتب باللهجة الخليجية مع الحفاظ على الوضوح."},
		{Key: "egyptian", Name: "مصري", Instruction: "اكتب باللهجة المصرية مع الحفاظ على الوضوح."},
		{Key: "levantine", Name: "شامي", Instruction: "اكتب باللهجة الشامية مع الحفاظ على الوضوح."},
	}
}
