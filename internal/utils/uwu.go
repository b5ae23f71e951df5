package utils

import (
	"math/rand"
	"regexp"
	"strings"
)

var uwuFaces = []string{
	"~ ✨", " *nuzzles*", " ^w^", " owo", " uwu", " nyaa~", " *blushes*",
	" *wiggles*", " *pounces*", " *sweats*", " >//<", " >:3", " (´・ω・`)",
	" *does a twirl*", " *spins around*", " *gasps*", " (๑•́ ω •̀๑)", " *hops*",
	" *bounces*", " (*´∇`*)", " ✧･ﾟ: *✧･ﾟ:*", " *purrs*", " *yawns*",
	" *stretches*", " (´∀｀)♡", " *tail wags*", " *ears droop*", " ♡w♡",
	" *giggles*", " *tilts head*", " *does a flip*", " *vanishes*",
}

var wordStart = regexp.MustCompile(`\b\w`)

var uwuReplacer = strings.NewReplacer("r", "w", "l", "w", "R", "W", "L", "W")

// Uwuifier converts text to uwu speak; the random source is injectable for tests
type Uwuifier struct {
	rnd         *rand.Rand
	stutterRate float64
	faceRate    float64
}

// NewUwuifier creates an uwuifier using rnd
func NewUwuifier(rnd *rand.Rand) *Uwuifier {
	return &Uwuifier{rnd: rnd, stutterRate: 0.15, faceRate: 0.4}
}

// Line converts one line
func (u *Uwuifier) Line(text string) string {
	result := wordStart.ReplaceAllStringFunc(text, func(letter string) string {
		if u.rnd.Float64() < u.stutterRate {
			return letter + "-" + strings.ToLower(letter)
		}
		return letter
	})
	result = uwuReplacer.Replace(result)

	if result != "" && u.rnd.Float64() < u.faceRate {
		result += uwuFaces[u.rnd.Intn(len(uwuFaces))]
	}
	return result
}

// Convert converts every non-blank line, keeping line breaks
func (u *Uwuifier) Convert(content string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines[i] = u.Line(line)
	}
	return strings.Join(lines, "\n")
}
