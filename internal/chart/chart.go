// Package chart renders the temperature series as a colored sparkline with
// a localized timeline underneath, and the summary stat tiles.
package chart

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/tempdash/internal/locale"
	"github.com/luki/tempdash/internal/reading"
	"github.com/luki/tempdash/internal/stats"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	colorCold   = lipgloss.Color("75")
	colorNormal = lipgloss.Color("78")
	colorWarm   = lipgloss.Color("208")
	colorDim    = lipgloss.Color("236")
	colorTick   = lipgloss.Color("239")
)

// Range is the vertical extent of the chart.
type Range struct {
	Min, Max float64
}

// YRange suggests a vertical range around the series average (half to one
// and a half times it), widened so every value in st fits.
func YRange(st stats.Stats) Range {
	avg, ok := st.AverageValue()
	if !ok || math.IsNaN(avg) || math.IsInf(avg, 0) {
		return Range{Min: 20, Max: 20}
	}
	r := Range{Min: math.Min(avg/2, avg*1.5), Max: math.Max(avg/2, avg*1.5)}
	if st.Min < r.Min {
		r.Min = st.Min
	}
	if st.Max > r.Max {
		r.Max = st.Max
	}
	return r
}

// TempColor picks a color by where v sits between the series min and max:
// bottom quarter is cold, top quarter warm.
func TempColor(v float64, st stats.Stats) lipgloss.Color {
	span := st.Max - st.Min
	if !st.HasData() || span <= 0 || math.IsNaN(span) {
		return colorNormal
	}
	pos := (v - st.Min) / span
	switch {
	case pos >= 0.75:
		return colorWarm
	case pos <= 0.25:
		return colorCold
	default:
		return colorNormal
	}
}

// RenderSparkline draws the last width readings as block characters scaled
// into rng. A subtle pipe marks each minute boundary; it takes the column
// of the first reading of that minute, so that reading has no bar.
func RenderSparkline(points []reading.Reading, width int, rng Range, st stats.Stats) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(colorDim)
	if len(points) == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}

	points = tail(points, width)
	padLen := width - len(points)
	span := rng.Max - rng.Min
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("╌"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(colorTick)
	for i, p := range points {
		if isMinuteTick(points, i) {
			sb.WriteString(tickStyle.Render("│"))
			continue
		}

		norm := (p.Temperature - rng.Min) / span
		if math.IsNaN(norm) {
			norm = 0
		}
		norm = math.Max(0, math.Min(1, norm))
		idx := int(norm * 7)

		style := lipgloss.NewStyle().Foreground(TempColor(p.Temperature, st))
		if st.HasData() && p.Temperature == st.Max {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

// RenderTimeline renders localized timestamps under the sparkline. At most
// maxTicks labels are placed, evenly spread and never overlapping.
func RenderTimeline(points []reading.Reading, width int, b locale.Bundle) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	points = tail(points, width)
	padLen := width - len(points)

	line := []rune(strings.Repeat(" ", width))

	maxTicks := 10
	if width < 60 {
		maxTicks = 4
	}
	step := len(points) / maxTicks
	if step < 1 {
		step = 1
	}

	lastEnd := -1
	for i := 0; i < len(points); i += step {
		label := []rune(locale.FormatTimestamp(points[i].Timestamp, b))
		if len(label) > width {
			break
		}
		start := padLen + i - len(label)/2
		if start < 0 {
			start = 0
		}
		if start+len(label) > width {
			start = width - len(label)
		}
		if start <= lastEnd {
			continue
		}
		end := start + len(label)
		copy(line[start:], label)
		lastEnd = end
	}

	return lipgloss.NewStyle().Foreground(colorTick).Render(string(line))
}

// RenderTile renders one stat tile: icon and title on top, value below.
func RenderTile(title, value, icon string, width int) string {
	head := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(icon + " " + title)
	val := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Width(width - 4).
		Align(lipgloss.Right).
		Render(value)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("75")).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, head, val))
}

func isMinuteTick(points []reading.Reading, i int) bool {
	p := points[i]
	if p.Timestamp.IsZero() || i == 0 {
		return false
	}
	prev := points[i-1].Timestamp
	if prev.IsZero() {
		return false
	}
	return !p.Timestamp.Truncate(time.Minute).Equal(prev.Truncate(time.Minute))
}

func tail(points []reading.Reading, n int) []reading.Reading {
	if len(points) > n {
		return points[len(points)-n:]
	}
	return points
}
