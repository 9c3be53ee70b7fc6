package detect

import (
	"strings"

	"FMGoalMusic/internal/team"
)

// GoalDetector ищет голевые фразы активного языка и извлекает название
// забившей команды: сначала из хвоста фразы ("GOAL FOR <команда>"),
// иначе из текста перед фразой ("<команда> SCORED"). Если позиция фразы
// неизвестна (токенное совпадение), а выбранная команда упомянута в тексте,
// гол приписывается ей.
type GoalDetector struct {
	enabled bool
}

func NewGoalDetector(enabled bool) *GoalDetector {
	return &GoalDetector{enabled: enabled}
}

func (d *GoalDetector) Name() string  { return "goal" }
func (d *GoalDetector) Enabled() bool { return d.enabled }

func (d *GoalDetector) Detect(ctx Context) Result {
	phrase, start, end, conf := matchPhrase(ctx.Text.Text, ctx.Lexicon.Goal)
	if phrase == "" {
		return NoMatch
	}
	res := Result{Kind: KindGoal, Confidence: conf}
	if end >= 0 {
		res.TeamName = cleanTeamName(ctx.Text.Text[end:])
		if res.TeamName == "" && start > 0 {
			res.TeamName = cleanTeamName(ctx.Text.Text[:start])
		}
	}
	if res.TeamName == "" {
		res.TeamName = selectedTeamInText(ctx.Text.Text, ctx.Team)
	}
	return res
}

// selectedTeamInText возвращает каноническое имя выбранной команды, если
// одно из её названий встречается в тексте. Только настроенные названия,
// без псевдонимов.
func selectedTeamInText(text string, t *team.Team) string {
	if t == nil {
		return ""
	}
	for _, v := range append([]string{t.DisplayName}, t.Variations...) {
		u := strings.ToUpper(strings.TrimSpace(v))
		if u != "" && strings.Contains(text, u) {
			return strings.ToUpper(t.DisplayName)
		}
	}
	return ""
}

// cleanTeamName отрезает от кандидата пунктуацию, счёт и прочий мусор
// вокруг названия.
func cleanTeamName(s string) string {
	s = strings.Trim(s, " :-—!.,;")
	if cut := strings.IndexAny(s, "!.,;0123456789"); cut >= 0 {
		s = s[:cut]
	}
	return strings.TrimSpace(s)
}
