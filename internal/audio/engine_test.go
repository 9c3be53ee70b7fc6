package audio

import (
	"testing"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
)

func TestPlaysetTracksConcurrentInstances(t *testing.T) {
	t.Parallel()

	p := make(playset)
	a, b := &beep.Ctrl{}, &beep.Ctrl{}

	// два экземпляра одного неэксклюзивного источника
	p.add(SourceGoalAmbiance, a)
	p.add(SourceGoalAmbiance, b)
	assert.Len(t, p[SourceGoalAmbiance], 2)

	// take изымает оба: Stop дотягивается до каждого экземпляра
	ctrls := p.take(SourceGoalAmbiance)
	assert.ElementsMatch(t, []*beep.Ctrl{a, b}, ctrls)
	assert.Empty(t, p)

	// повторный take пуст и безопасен
	assert.Empty(t, p.take(SourceGoalAmbiance))
}

func TestPlaysetRemoveKeepsOthers(t *testing.T) {
	t.Parallel()

	p := make(playset)
	a, b := &beep.Ctrl{}, &beep.Ctrl{}
	p.add(SourceGoalMusic, a)
	p.add(SourceGoalMusic, b)

	// завершился первый экземпляр — второй продолжает играть
	p.remove(SourceGoalMusic, a)
	assert.Equal(t, []*beep.Ctrl{b}, p[SourceGoalMusic])

	// удаление неизвестного экземпляра — no-op
	p.remove(SourceGoalMusic, a)
	assert.Equal(t, []*beep.Ctrl{b}, p[SourceGoalMusic])

	p.remove(SourceGoalMusic, b)
	_, ok := p[SourceGoalMusic]
	assert.False(t, ok, "empty source entry is dropped")
}
