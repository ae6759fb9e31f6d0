// Package artwork turns album art into terminal colors: it fetches cover
// images, extracts a display palette and renders half-block previews.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"
)

// Palette is the color set the renderer styles itself with. Gradient is a
// precomputed ramp between the two best-separated colors.
type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Gradient  []string
}

// Fetch loads the image an MPRIS mpris:artUrl points at. Both file:// and
// http(s) URLs appear in the wild.
func Fetch(ctx context.Context, artworkURL string) (image.Image, error) {
	if artworkURL == "" {
		return nil, errors.New("empty artwork url")
	}

	if strings.HasPrefix(artworkURL, "file://") {
		path := strings.TrimPrefix(artworkURL, "file://")
		if unescaped, err := url.PathUnescape(path); err == nil {
			path = unescaped
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork file: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode artwork image: %w", err)
		}
		return img, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}

type scoredColor struct {
	hex        string
	sat        float64
	brightness float64
	score      float64
}

// ExtractPalette clusters the image into dominant colors and picks the
// three most usable ones. Muddy or near-black clusters fall through to the
// defaults.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	clusters, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(clusters) < 3 {
		return DefaultPalette()
	}

	scored := make([]scoredColor, 0, len(clusters))
	for _, c := range clusters {
		r := float64(c.Color.R) / 255
		g := float64(c.Color.G) / 255
		b := float64(c.Color.B) / 255

		brightest := math.Max(math.Max(r, g), b)
		darkest := math.Min(math.Min(r, g), b)

		var sat float64
		if brightest > 0 {
			sat = (brightest - darkest) / brightest
		}

		scored = append(scored, scoredColor{
			hex:        boost(c.Color.R, c.Color.G, c.Color.B, brightest),
			sat:        sat,
			brightness: brightest,
			// favor saturated colors near comfortable reading brightness
			score: sat * (1 - math.Abs(brightest-0.6)),
		})
	}

	best := pickDistinct(scored, 3)
	if len(best) < 3 {
		return DefaultPalette()
	}

	return &Palette{
		Primary:   best[0].hex,
		Secondary: best[1].hex,
		Accent:    best[2].hex,
		Dim:       defaultDim,
		Gradient:  Gradient(best[0].hex, best[1].hex, gradientSteps),
	}
}

// pickDistinct returns the n highest scoring colors that are not duplicates
// of an already chosen one, in score order.
func pickDistinct(scored []scoredColor, n int) []scoredColor {
	var picked []scoredColor
	used := make(map[string]bool)

	for len(picked) < n {
		bestIdx := -1
		for i, c := range scored {
			if used[c.hex] || c.brightness < 0.25 {
				continue
			}
			if bestIdx < 0 || c.score > scored[bestIdx].score {
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[scored[bestIdx].hex] = true
		picked = append(picked, scored[bestIdx])
	}
	return picked
}

const (
	defaultPrimary   = "#8BA4E8"
	defaultSecondary = "#E8A4C8"
	defaultAccent    = "#B8A8E8"
	defaultDim       = "#6272A4"
	gradientSteps    = 20
)

func DefaultPalette() *Palette {
	return &Palette{
		Primary:   defaultPrimary,
		Secondary: defaultSecondary,
		Accent:    defaultAccent,
		Dim:       defaultDim,
		Gradient:  Gradient(defaultPrimary, defaultSecondary, gradientSteps),
	}
}

// boost lifts very dark colors toward legibility and mutes near-white ones.
func boost(r, g, b uint32, brightness float64) string {
	if brightness > 0 && brightness < 0.4 {
		factor := math.Min(0.4/brightness, 2.5)
		r = uint32(math.Min(255, float64(r)*factor))
		g = uint32(math.Min(255, float64(g)*factor))
		b = uint32(math.Min(255, float64(b)*factor))
	}
	if brightness > 0.85 {
		avg := (r + g + b) / 3
		r = uint32(float64(avg) + (float64(r)-float64(avg))*0.7)
		g = uint32(float64(avg) + (float64(g)-float64(avg))*0.7)
		b = uint32(float64(avg) + (float64(b)-float64(avg))*0.7)
	}
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// RenderHalfBlockArt draws the image into styled half-block cells, two
// pixels per terminal row.
func RenderHalfBlockArt(img image.Image, targetWidth, targetHeight int) []string {
	if img == nil || targetWidth < 4 || targetHeight < 2 {
		return nil
	}

	resized := resize.Resize(uint(targetWidth), uint(targetHeight*2), img, resize.Lanczos3)
	bounds := resized.Bounds()

	lines := make([]string, targetHeight)
	for y := 0; y < targetHeight; y++ {
		var line strings.Builder
		topY := y * 2
		bottomY := topY + 1

		for x := 0; x < bounds.Dx(); x++ {
			topR, topG, topB, topA := resized.At(bounds.Min.X+x, bounds.Min.Y+topY).RGBA()

			bottomR, bottomG, bottomB, bottomA := topR, topG, topB, topA
			if bottomY < bounds.Dy() {
				bottomR, bottomG, bottomB, bottomA = resized.At(bounds.Min.X+x, bounds.Min.Y+bottomY).RGBA()
			}

			if topA>>8 < 128 && bottomA>>8 < 128 {
				line.WriteString(" ")
				continue
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", topR>>8, topG>>8, topB>>8))).
				Background(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", bottomR>>8, bottomG>>8, bottomB>>8)))
			line.WriteString(style.Render("▀"))
		}
		lines[y] = line.String()
	}
	return lines
}
