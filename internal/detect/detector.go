// Package detect — классификаторы распознанного текста: гол, начало матча,
// конец матча. Каждый детектор — чистая функция своего контекста, без
// скрытого состояния, поэтому новые типы добавляются и тестируются независимо.
package detect

import (
	"strings"

	"FMGoalMusic/internal/lexicon"
	"FMGoalMusic/internal/ocr"
	"FMGoalMusic/internal/team"
)

// Kind — вид результата детекции.
type Kind int

const (
	KindNoMatch Kind = iota
	KindGoal
	KindKickoff
	KindMatchEnd
)

func (k Kind) String() string {
	switch k {
	case KindGoal:
		return "goal"
	case KindKickoff:
		return "kickoff"
	case KindMatchEnd:
		return "match_end"
	default:
		return "no_match"
	}
}

// Result — закрытый размеченный вариант результата. Поля заполняются
// в зависимости от Kind: TeamName для гола, счёт для конца матча.
type Result struct {
	Kind       Kind
	TeamName   string // пустая строка — название не извлечено
	HomeScore  int
	AwayScore  int
	Confidence float64 // 0.0 .. 1.0
}

// NoMatch — результат "ничего не найдено".
var NoMatch = Result{Kind: KindNoMatch}

// Context — всё, что нужно детектору на один тик. Детектор не имеет права
// ничего в нём менять.
type Context struct {
	Text    ocr.RecognizedText
	Lexicon lexicon.Lexicon
	Team    *team.Team // может быть nil, если команда не выбрана
}

// Detector — способность классифицировать текст одного тика.
type Detector interface {
	Detect(ctx Context) Result
	Name() string
	Enabled() bool
}

// Уверенность при точном вхождении фразы и при совпадении по токенам.
const (
	confSubstring = 0.9
	confTokens    = 0.7
)

// matchPhrase ищет первую фразу набора в тексте: сначала вхождением подстроки,
// затем по подмножеству токенов (порядок не важен). Нечёткого сравнения нет.
// Возвращает найденную фразу, границы вхождения (-1 для токенного совпадения)
// и уверенность; пустая фраза — совпадения нет.
func matchPhrase(text string, phrases []string) (phrase string, start, end int, conf float64) {
	for _, p := range phrases {
		if idx := strings.Index(text, p); idx >= 0 {
			return p, idx, idx + len(p), confSubstring
		}
	}
	textTokens := tokenSet(text)
	for _, p := range phrases {
		if containsAllTokens(textTokens, strings.Fields(p)) {
			return p, -1, -1, confTokens
		}
	}
	return "", -1, -1, 0
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

func containsAllTokens(set map[string]struct{}, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
