package domain

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"
)

// Origin is the location of a manhole without located compartments
var Origin = orb.Point{0, 0}

// meanPoint returns the component-wise mean of points, or Origin for none
func meanPoint(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return Origin
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X()
		ys[i] = p.Y()
	}
	return orb.Point{stat.Mean(xs, nil), stat.Mean(ys, nil)}
}

// segment joins two points. Identical points are pulled apart along X so the
// line keeps a non-zero length.
func segment(from, to orb.Point) orb.LineString {
	if from.Equal(to) {
		to = orb.Point{to.X() + 1, to.Y()}
	}
	return orb.LineString{from, to}
}

// midpoint returns the point halfway along a line
func midpoint(ls orb.LineString) (orb.Point, bool) {
	if len(ls) < 2 {
		return orb.Point{}, false
	}
	half := planar.Length(ls) / 2
	walked := 0.0
	for i := 1; i < len(ls); i++ {
		step := planar.Distance(ls[i-1], ls[i])
		if walked+step >= half && step > 0 {
			f := (half - walked) / step
			a, b := ls[i-1], ls[i]
			return orb.Point{a.X() + f*(b.X()-a.X()), a.Y() + f*(b.Y()-a.Y())}, true
		}
		walked += step
	}
	return ls[len(ls)-1], true
}

func equalLines(a, b orb.LineString) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// logSink holds an injectable logger
type logSink struct {
	logger *slog.Logger
}

// SetLogger replaces the logger used for rejected and informational edits.
// A nil logger restores slog.Default().
func (s *logSink) SetLogger(l *slog.Logger) {
	s.logger = l
}

func (s *logSink) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
