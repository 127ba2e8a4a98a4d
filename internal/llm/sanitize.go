package llm

import (
	"regexp"
	"strings"
	"unicode"
)

// Allowed characters in generated posts:
//   - Arabic block U+0600..U+06FF (letters, Arabic digits, ، ؛ ؟ and tatweel)
//   - ASCII digits, space and newline
//   - punctuation: # @ _ : ! . , ? - ( ) and the bullet •
//   - emoji: U+1F300..U+1F5FF, U+1F600..U+1F64F, U+1F680..U+1F6FF,
//     U+1F900..U+1F9FF, U+2600..U+27BF, plus U+FE0F and U+200D so
//     composed emoji survive
var emojiRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1},
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1},
		{Lo: 0xFE0F, Hi: 0xFE0F, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F300, Hi: 0x1F64F, Stride: 1},
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1},
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1},
	},
}

const allowedPunct = "#@_:!.,?-()•"

var (
	spaceAroundNewline = regexp.MustCompile(` *\n *`)
	repeatedNewlines   = regexp.MustCompile(`\n+`)
	repeatedSpaces     = regexp.MustCompile(` +`)
)

func allowed(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= '0' && r <= '9', r == ' ', r == '\n':
		return true
	case strings.ContainsRune(allowedPunct, r):
		return true
	}
	return unicode.Is(emojiRanges, r)
}

// Sanitize drops every character outside the allowed set, collapses runs of
// blank lines and spaces and trims the result. It is pure and idempotent.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if allowed(r) {
			return r
		}
		return -1
	}, text)
	text = spaceAroundNewline.ReplaceAllString(text, "\n")
	text = repeatedNewlines.ReplaceAllString(text, "\n")
	text = repeatedSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// arabicShare is the fraction of letters in text that are Arabic.
// Text without letters scores 0.
func arabicShare(text string) float64 {
	var letters, arabic int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(arabic) / float64(letters)
}
