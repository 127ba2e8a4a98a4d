package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps arabic and emoji", "مرحبا بالعالم 🎉", "مرحبا بالعالم 🎉"},
		{"drops latin letters", "Hello مرحبا world", "مرحبا"},
		{"keeps hashtags and punctuation", "نصيحة: ابدأ الآن! #ريادة_أعمال", "نصيحة: ابدأ الآن! #ريادة_أعمال"},
		{"collapses blank lines", "سطر\n\n\n  سطر", "سطر\nسطر"},
		{"collapses spaces", "كلمة    كلمة\tكلمة", "كلمة كلمة كلمة"},
		{"keeps digits", "3 نقاط و ٣ أفكار", "3 نقاط و ٣ أفكار"},
		{"drops markdown and cjk", "**عنوان** 漢字", "عنوان"},
		{"windows newlines", "أ\r\nب", "أ\nب"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Sanitize(got))
		})
	}
}

func TestArabicShare(t *testing.T) {
	assert.Equal(t, 1.0, arabicShare("مرحبا 123"))
	assert.Equal(t, 0.0, arabicShare("hello"))
	assert.Equal(t, 0.0, arabicShare("🎉 123"))
	assert.InDelta(t, 0.5, arabicShare("ab أب"), 0.001)
}
