package audio

import "github.com/faiface/beep"

// fader плавно поднимает громкость на первых fadeIn сэмплах и опускает
// на последних fadeOut сэмплах потока известной длины total.
type fader struct {
	s       beep.Streamer
	pos     int
	fadeIn  int
	fadeOut int
	total   int
}

func (f *fader) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.s.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		p := f.pos + i
		if f.fadeIn > 0 && p < f.fadeIn {
			gain = float64(p) / float64(f.fadeIn)
		}
		if f.fadeOut > 0 && f.total > 0 {
			if rem := f.total - p; rem < f.fadeOut {
				g := float64(rem) / float64(f.fadeOut)
				if g < 0 {
					g = 0
				}
				if g < gain {
					gain = g
				}
			}
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
	f.pos += n
	return n, ok
}

func (f *fader) Err() error { return f.s.Err() }
