package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionString(t *testing.T) {
	t.Parallel()

	r := Region{X: 10, Y: 20, Width: 800, Height: 90, Monitor: 1}
	assert.Equal(t, "800x90+10+20@display1", r.String())
}

func TestNewRejectsEmptyRegion(t *testing.T) {
	t.Parallel()

	_, err := New(Region{Width: 0, Height: 90})
	assert.ErrorIs(t, err, ErrRegionOutOfBounds)

	_, err = New(Region{Width: 800, Height: -1})
	assert.ErrorIs(t, err, ErrRegionOutOfBounds)
}

func TestNewRejectsUnknownDisplay(t *testing.T) {
	t.Parallel()

	// без дисплеев ошибка другая, но ошибка есть всегда
	_, err := New(Region{Width: 10, Height: 10, Monitor: 9999})
	assert.Error(t, err)
}
