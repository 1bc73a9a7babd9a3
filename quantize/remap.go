package quantize

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

type lab struct {
	l, a, b float64
}

func toLab(c color.NRGBA) lab {
	l, a, b := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Lab()
	return lab{l, a, b}
}

// remapper finds the nearest palette entry for a color, remembering every
// answer as most images repeat a small number of colors many times.
type remapper struct {
	metric  Metric
	palette []color.NRGBA
	labs    []lab
	cache   map[color.NRGBA]uint8
}

func newRemapper(p color.Palette, metric Metric) *remapper {
	r := &remapper{
		metric:  metric,
		palette: make([]color.NRGBA, len(p)),
		cache:   make(map[color.NRGBA]uint8),
	}
	for i, c := range p {
		r.palette[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	if metric == MetricLab {
		r.labs = make([]lab, len(p))
		for i, c := range r.palette {
			r.labs[i] = toLab(c)
		}
	}
	return r
}

func (r *remapper) index(c color.Color) uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	if i, ok := r.cache[n]; ok {
		return i
	}

	var i int
	if r.metric == MetricLab {
		i = r.nearestLab(n)
	} else {
		i = r.nearestRGB(n)
	}
	r.cache[n] = uint8(i)
	return uint8(i)
}

// Copied from color.sqDiff
func sqDiff(x, y uint32) uint32 {
	d := x - y
	return (d * d) >> 2
}

func (r *remapper) nearestRGB(c color.NRGBA) int {
	ret, bestSum := 0, uint32(1<<32-1)
	for i, p := range r.palette {
		sum := sqDiff(uint32(c.R)*0x101, uint32(p.R)*0x101) +
			sqDiff(uint32(c.G)*0x101, uint32(p.G)*0x101) +
			sqDiff(uint32(c.B)*0x101, uint32(p.B)*0x101)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}

func (r *remapper) nearestLab(c color.NRGBA) int {
	l := toLab(c)
	ret, best := 0, math.Inf(1)
	for i, p := range r.labs {
		d := (l.l-p.l)*(l.l-p.l) + (l.a-p.a)*(l.a-p.a) + (l.b-p.b)*(l.b-p.b)
		if d < best {
			ret, best = i, d
		}
	}
	return ret
}
