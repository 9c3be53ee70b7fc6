// Package vision — подготовка захваченного кадра к распознаванию текста:
// бинаризация по глобальному порогу и опциональная морфологическая очистка.
// Все функции чистые и детерминированные: одинаковые байты кадра дают
// одинаковый результат.
package vision

import (
	"image"
)

// ThresholdMode задаёт способ выбора порога бинаризации.
type ThresholdMode int

const (
	// ThresholdAuto — глобальный порог по гистограмме яркости (метод Оцу).
	ThresholdAuto ThresholdMode = iota
	// ThresholdManual — фиксированный порог 0..255.
	ThresholdManual
)

// Threshold — режим и значение порога (значение используется только в Manual).
type Threshold struct {
	Mode  ThresholdMode
	Value uint8
}

// Binarize переводит кадр в чёрно-белое изображение: яркость выше порога — 255,
// иначе 0. Яркость считается целочисленным приближением BT.601.
func Binarize(src *image.RGBA, th Threshold) *image.Gray {
	return BinarizeInto(nil, src, th)
}

// BinarizeInto — то же, но пишет в dst, если его размер совпадает с кадром.
// Конвейер держит один такой буфер на сессию и перезаписывает его каждый тик.
func BinarizeInto(dst *image.Gray, src *image.RGBA, th Threshold) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := ensureGray(dst, w, h)

	var hist [256]int
	for y := 0; y < h; y++ {
		srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		dstOff := y * gray.Stride
		for x := 0; x < w; x++ {
			p := src.Pix[srcOff : srcOff+3 : srcOff+3]
			// 0.299R + 0.587G + 0.114B в фиксированной точке
			lum := uint8((299*int(p[0]) + 587*int(p[1]) + 114*int(p[2])) / 1000)
			gray.Pix[dstOff+x] = lum
			hist[lum]++
			srcOff += 4
		}
	}

	cut := th.Value
	if th.Mode == ThresholdAuto {
		cut = otsu(hist, w*h)
	}
	for i, v := range gray.Pix {
		if v > cut {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

// otsu подбирает порог, максимизирующий межклассовую дисперсию гистограммы.
func otsu(hist [256]int, total int) uint8 {
	if total == 0 {
		return 127
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var (
		sumB, wB float64
		best     float64
		cut      uint8
	)
	for i, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			cut = uint8(i)
		}
	}
	return cut
}

// MorphOpen выполняет морфологическое открытие (эрозия, затем дилатация)
// структурным элементом 3x3 на бинарном изображении. Убирает одиночные
// шумовые пиксели ценой дополнительной задержки, поэтому включается отдельно.
func MorphOpen(src *image.Gray) *image.Gray {
	return MorphOpenInto(nil, nil, src)
}

// MorphOpenInto — то же с переиспользуемыми буферами: tmp принимает эрозию,
// dst — итоговую дилатацию. Соседство 3x3 не позволяет работать на месте.
func MorphOpenInto(dst, tmp *image.Gray, src *image.Gray) *image.Gray {
	eroded := morph(tmp, src, func(minv, maxv uint8) uint8 { return minv })
	return morph(dst, eroded, func(minv, maxv uint8) uint8 { return maxv })
}

func morph(dst *image.Gray, src *image.Gray, pick func(minv, maxv uint8) uint8) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst = ensureGray(dst, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			minv, maxv := uint8(255), uint8(0)
			for dy := -1; dy <= 1; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				row := yy * src.Stride
				for dx := -1; dx <= 1; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					v := src.Pix[row+xx]
					if v < minv {
						minv = v
					}
					if v > maxv {
						maxv = v
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = pick(minv, maxv)
		}
	}
	return dst
}

// ensureGray отдаёт buf, если его размер подходит, иначе выделяет новый.
// Содержимое буфера не очищается: вызывающий перезаписывает каждый пиксель.
func ensureGray(buf *image.Gray, w, h int) *image.Gray {
	if buf != nil && buf.Rect.Min == (image.Point{}) && buf.Rect.Dx() == w && buf.Rect.Dy() == h {
		return buf
	}
	return image.NewGray(image.Rect(0, 0, w, h))
}
