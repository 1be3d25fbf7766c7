// Package analysis post-processes archived drainage and rain readings: time
// windows, removal of ranging noise and flow from a level series.
package analysis

import (
	"sort"
	"time"

	"github.com/gr-butler/hydrostation/archive"
	"github.com/gr-butler/hydrostation/calc"
)

type Point struct {
	Time  time.Time
	Value float64
}

func FromRecords(records []archive.Record) []Point {
	out := make([]Point, 0, len(records))
	for _, r := range records {
		out = append(out, Point{Time: r.Time, Value: r.Value})
	}
	return out
}

// Sort orders points by time, keeping the order of equal timestamps.
func Sort(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
}

// FilterRange keeps the points with from <= Time <= to.
func FilterRange(points []Point, from time.Time, to time.Time) []Point {
	var out []Point
	for _, p := range points {
		if p.Time.Before(from) || p.Time.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CorrectForward drops every point below the highest value seen so far. A
// filling tank never loses water, so a dip is a bad echo.
func CorrectForward(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	out := []Point{points[0]}
	highest := points[0].Value
	for _, p := range points[1:] {
		if p.Value >= highest {
			out = append(out, p)
			highest = p.Value
		}
	}
	return out
}

// CorrectBackward walks the series from the end and drops every point above
// the lowest value seen after it. The first point is always kept.
func CorrectBackward(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	var kept []Point
	lowest := points[len(points)-1].Value
	for i := len(points) - 1; i > 0; i-- {
		if points[i].Value <= lowest {
			kept = append(kept, points[i])
			lowest = points[i].Value
		}
	}
	kept = append(kept, points[0])

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

// Flow converts a level series (cm) into inflow in cm³/min for a tank of the
// given radius. Each result is stamped with the later of its two points;
// pairs with no time between them are skipped.
func Flow(levels []Point, radius float64) []Point {
	var out []Point
	area := calc.SectionArea(radius)
	for i := 1; i < len(levels); i++ {
		minutes := levels[i].Time.Sub(levels[i-1].Time).Minutes()
		if minutes == 0 {
			continue
		}
		out = append(out, Point{
			Time:  levels[i].Time,
			Value: (levels[i].Value - levels[i-1].Value) * area / minutes,
		})
	}
	return out
}
