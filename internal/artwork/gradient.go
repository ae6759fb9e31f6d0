package artwork

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Gradient interpolates between two hex colors in HSL space, taking the
// shortest way around the hue wheel.
func Gradient(startHex, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}

	sh, ss, sl := rgbToHSL(hexToRGB(startHex))
	eh, es, el := rgbToHSL(hexToRGB(endHex))

	hueDiff := eh - sh
	if hueDiff > 180 {
		hueDiff -= 360
	} else if hueDiff < -180 {
		hueDiff += 360
	}

	gradient := make([]string, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)

		h := sh + t*hueDiff
		if h < 0 {
			h += 360
		} else if h >= 360 {
			h -= 360
		}

		r, g, b := hslToRGB(h, ss+t*(es-ss), sl+t*(el-sl))
		gradient[i] = fmt.Sprintf("#%02X%02X%02X", r, g, b)
	}
	return gradient
}

// GradientText renders text with a per-rune color ramp.
func GradientText(text string, gradient []string, bold bool) string {
	if text == "" {
		return ""
	}
	if len(gradient) == 0 {
		return text
	}

	runes := []rune(text)
	var result strings.Builder
	for i, r := range runes {
		idx := 0
		if len(runes) > 1 {
			idx = i * (len(gradient) - 1) / (len(runes) - 1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[idx]))
		if bold {
			style = style.Bold(true)
		}
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}

func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 255, 255, 255
	}
	parse := func(s string) int {
		v, err := strconv.ParseInt(s, 16, 64)
		if err != nil {
			return 255
		}
		return int(v)
	}
	return parse(hex[0:2]), parse(hex[2:4]), parse(hex[4:6])
}

func rgbToHSL(r, g, b int) (float64, float64, float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	maxC := math.Max(math.Max(rf, gf), bf)
	minC := math.Min(math.Min(rf, gf), bf)
	l := (maxC + minC) / 2

	if maxC == minC {
		return 0, 0, l
	}

	d := maxC - minC
	var s float64
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}

	var h float64
	switch maxC {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	return h * 60, s, l
}

func hslToRGB(h, s, l float64) (int, int, int) {
	if s == 0 {
		v := clamp(int(l * 255))
		return v, v, v
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h / 360

	channel := func(t float64) int {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		switch {
		case t < 1.0/6:
			return clamp(int((p + (q-p)*6*t) * 255))
		case t < 0.5:
			return clamp(int(q * 255))
		case t < 2.0/3:
			return clamp(int((p + (q-p)*(2.0/3-t)*6) * 255))
		default:
			return clamp(int(p * 255))
		}
	}

	return channel(hk + 1.0/3), channel(hk), channel(hk - 1.0/3)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
