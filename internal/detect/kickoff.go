package detect

// KickoffDetector отмечает начало матча по фразам стартового свистка.
type KickoffDetector struct {
	enabled bool
}

func NewKickoffDetector(enabled bool) *KickoffDetector {
	return &KickoffDetector{enabled: enabled}
}

func (d *KickoffDetector) Name() string  { return "kickoff" }
func (d *KickoffDetector) Enabled() bool { return d.enabled }

func (d *KickoffDetector) Detect(ctx Context) Result {
	phrase, _, _, conf := matchPhrase(ctx.Text.Text, ctx.Lexicon.Kickoff)
	if phrase == "" {
		return NoMatch
	}
	return Result{Kind: KindKickoff, Confidence: conf}
}
