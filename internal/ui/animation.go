package ui

import "math"

// AnimState drives the line-change animation: a scroll position easing
// toward the focused line and a glow that flares on each change.
type AnimState struct {
	TransitionProgress float64
	GlowIntensity      float64
	ScrollPosition     float64
	TargetScrollY      float64
	PrevScrollY        float64
}

func (a *AnimState) Reset() {
	*a = AnimState{}
}

func (a *AnimState) Update(tickCount int, newLine bool, transitionTicks int) {
	if transitionTicks <= 0 {
		transitionTicks = 18
	}

	if newLine {
		a.TransitionProgress = 0
		a.GlowIntensity = 1.0
		a.PrevScrollY = a.ScrollPosition
	}

	if a.TransitionProgress < 1.0 {
		a.TransitionProgress += 1.0 / float64(transitionTicks)
		if a.TransitionProgress > 1.0 {
			a.TransitionProgress = 1.0
		}
	}

	a.ScrollPosition = lerp(a.PrevScrollY, a.TargetScrollY, easeOutCubic(a.TransitionProgress))

	if a.GlowIntensity > 0 {
		a.GlowIntensity *= 0.85
		if a.GlowIntensity < 0.01 {
			a.GlowIntensity = 0
		}
	}
}

func easeOutCubic(t float64) float64 {
	if t >= 1 {
		return 1
	}
	if t <= 0 {
		return 0
	}
	return 1 - math.Pow(1-t, 3)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
