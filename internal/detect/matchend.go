package detect

import "regexp"

// scoreRe — счёт вида "2 - 1", "2-1", "2 : 1".
var scoreRe = regexp.MustCompile(`(\d+)\s*[-–:]\s*(\d+)`)

// MatchEndDetector отмечает финальный свисток и, если счёт присутствует
// в тексте, извлекает его.
type MatchEndDetector struct {
	enabled bool
}

func NewMatchEndDetector(enabled bool) *MatchEndDetector {
	return &MatchEndDetector{enabled: enabled}
}

func (d *MatchEndDetector) Name() string  { return "match_end" }
func (d *MatchEndDetector) Enabled() bool { return d.enabled }

func (d *MatchEndDetector) Detect(ctx Context) Result {
	phrase, _, _, conf := matchPhrase(ctx.Text.Text, ctx.Lexicon.MatchEnd)
	if phrase == "" {
		return NoMatch
	}
	res := Result{Kind: KindMatchEnd, Confidence: conf}
	if m := scoreRe.FindStringSubmatch(ctx.Text.Text); m != nil {
		res.HomeScore = atoiDigits(m[1])
		res.AwayScore = atoiDigits(m[2])
	}
	return res
}

// atoiDigits — разбор заведомо цифровой строки из регулярного выражения.
func atoiDigits(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
