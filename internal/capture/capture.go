// Package capture — захват фиксированной области экрана выбранного монитора.
package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

var (
	// ErrPermissionDenied — системное разрешение на захват экрана не выдано.
	ErrPermissionDenied = errors.New("screen capture permission denied")
	// ErrRegionOutOfBounds — область выходит за геометрию монитора
	// (например, дисплей отключили во время сессии).
	ErrRegionOutOfBounds = errors.New("capture region out of display bounds")
)

// Region — область захвата в координатах монитора. Неизменяема на время
// сессии: смена области требует остановки и перезапуска захвата.
type Region struct {
	X       int
	Y       int
	Width   int
	Height  int
	Monitor int
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d@display%d", r.Width, r.Height, r.X, r.Y, r.Monitor)
}

// Capturer захватывает одну и ту же область каждый тик. Экземпляр создаётся
// один раз на сессию и принадлежит исключительно потоку конвейера.
type Capturer struct {
	region Region
	rect   image.Rectangle // абсолютные экранные координаты
}

// New проверяет геометрию области против текущих границ монитора и
// возвращает готовый к работе захватчик.
func New(region Region) (*Capturer, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("%w: empty region %s", ErrRegionOutOfBounds, region)
	}
	rect, err := absoluteRect(region)
	if err != nil {
		return nil, err
	}
	return &Capturer{region: region, rect: rect}, nil
}

func (c *Capturer) Region() Region { return c.region }

// Capture снимает область экрана. Ошибки не повторяются молча: и отказ в
// разрешении, и уехавшая геометрия — устойчивые проблемы окружения,
// решаемые только вмешательством пользователя.
func (c *Capturer) Capture() (*image.RGBA, error) {
	// Геометрия перепроверяется каждый тик: монитор могли отключить.
	if _, err := absoluteRect(c.region); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(c.rect)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return img, nil
}

func absoluteRect(region Region) (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: no active displays", ErrPermissionDenied)
	}
	if region.Monitor < 0 || region.Monitor >= n {
		return image.Rectangle{}, fmt.Errorf("%w: display %d of %d", ErrRegionOutOfBounds, region.Monitor, n)
	}
	display := screenshot.GetDisplayBounds(region.Monitor)
	rect := image.Rect(
		display.Min.X+region.X,
		display.Min.Y+region.Y,
		display.Min.X+region.X+region.Width,
		display.Min.Y+region.Y+region.Height,
	)
	if !rect.In(display) {
		return image.Rectangle{}, fmt.Errorf("%w: %s vs %v", ErrRegionOutOfBounds, region, display)
	}
	return rect, nil
}
