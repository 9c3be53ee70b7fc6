package team

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher проверяет, относится ли распознанное название к выбранной команде.
// Вариации нормализуются один раз при создании; Matches укладывается в
// единицы микросекунд на сотни вариаций.
type Matcher struct {
	team   *Team
	joined []string   // нормализованные вариации целиком
	tokens [][]string // те же вариации по токенам
}

func NewMatcher(t *Team) *Matcher {
	m := &Matcher{team: t}
	// каноническое имя участвует в сравнении наряду с вариациями:
	// справочник не обязан дублировать его в списке
	seen := make(map[string]struct{}, len(t.Variations)+1)
	for _, v := range append([]string{t.DisplayName}, t.Variations...) {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		m.joined = append(m.joined, n)
		m.tokens = append(m.tokens, strings.Fields(n))
	}
	return m
}

func (m *Matcher) Team() *Team { return m.team }

// Matches возвращает true, если нормализованное название совпадает с какой-либо
// вариацией целиком либо все токены вариации встречаются среди токенов
// названия (порядок не важен). Семантических псевдонимов сверх списка
// вариаций матчер не знает.
func (m *Matcher) Matches(detected string) bool {
	n := Normalize(detected)
	if n == "" {
		return false
	}
	for _, j := range m.joined {
		if n == j {
			return true
		}
	}
	detTokens := strings.Fields(n)
	set := make(map[string]struct{}, len(detTokens))
	for _, t := range detTokens {
		set[t] = struct{}{}
	}
	for _, variation := range m.tokens {
		if containsAll(set, variation) {
			return true
		}
	}
	return false
}

func containsAll(set map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// foldDiacritics снимает диакритику: NFD-разложение и удаление комбинирующих знаков.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize приводит название к канонической форме сравнения:
// без диакритики, в нижнем регистре, без пунктуации, с одиночными пробелами.
func Normalize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
