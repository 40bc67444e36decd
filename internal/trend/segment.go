package trend

// SplitSegments decomposes an ordered polyline into consecutive two-point
// segments for piecewise rendering. n points yield max(n-1, 0) segments;
// segment i is (points[i], points[i+1]). Point order is taken as given.
func SplitSegments(points []Point) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		segs[i] = Segment{points[i], points[i+1]}
	}
	return segs
}
