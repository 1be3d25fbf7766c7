// Package calc turns raw station readings into hydrological quantities.
package calc

import "math"

// RainfallDepth is the rain collected in mm for a number of bucket tips.
// bucketVolume is in cm³ per tip, collectorArea in cm².
func RainfallDepth(tips int, bucketVolume float64, collectorArea float64) float64 {
	return float64(tips) * bucketVolume * 10 / collectorArea
}

// PrecipitationRate extrapolates depth (mm) over windowSeconds to mm/h.
func PrecipitationRate(depth float64, windowSeconds float64) float64 {
	if windowSeconds <= 0 {
		return 0
	}
	return depth * 3600 / windowSeconds
}

// WaterLevel in cm, from the ranger's reference height and a distance reading.
func WaterLevel(reference float64, distance float64) float64 {
	return reference - distance
}

// SectionArea of the cylindrical tank in cm².
func SectionArea(radius float64) float64 {
	return math.Pi * radius * radius
}

// StoredVolume in cm³ for a water level in a cylinder of the given radius.
func StoredVolume(level float64, radius float64) float64 {
	return level * SectionArea(radius)
}

// FlowRate is the volume change between two levels divided by the sampling
// interval in milliseconds.
func FlowRate(current float64, previous float64, radius float64, intervalMS float64) float64 {
	if intervalMS <= 0 {
		return 0
	}
	return (current - previous) * SectionArea(radius) / intervalMS
}

// FlowTracker keeps the previous level between measurement cycles.
type FlowTracker struct {
	Radius     float64
	IntervalMS float64
	previous   float64
}

// Update returns the flow since the last call. draining is true when the
// level fell, in which case the magnitude is not meant to be published.
func (f *FlowTracker) Update(level float64) (flow float64, draining bool) {
	flow = FlowRate(level, f.previous, f.Radius, f.IntervalMS)
	f.previous = level
	return flow, flow < 0
}

func (f *FlowTracker) Previous() float64 {
	return f.previous
}
