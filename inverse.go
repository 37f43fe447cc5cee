package traverse

// InverseResult is the solution of the inverse problem between two points.
type InverseResult struct {
	Distance       float64 `json:"distance_m"`
	InitialBearing float64 `json:"initial_bearing_deg"`
	FinalBearing   float64 `json:"final_bearing_deg"`
	Iterations     int     `json:"iterations"`
	// Approximate is set when the ellipsoidal iteration failed (nearly
	// antipodal points) and the spherical solution was used instead.
	Approximate bool `json:"approximate,omitempty"`
}

// Inverse finds the distance and bearings from one point to another on e.
// It is used to evaluate polygon closure and to record the closing course.
func Inverse(from, to Coordinate, e *Ellipsoid) (InverseResult, error) {
	from, err := NewCoordinate(from.Lat, from.Lon)
	if err != nil {
		return InverseResult{}, err
	}
	to, err = NewCoordinate(to.Lat, to.Lon)
	if err != nil {
		return InverseResult{}, err
	}
	e = orDefault(e)
	inv, ok := vincentyInverse(e, from, to, defaultVincentyTolerance, defaultVincentyIterations)
	if ok {
		return inv, nil
	}
	out := InverseResult{Iterations: inv.Iterations, Approximate: true}
	sphericalInverse(e.MeanRadius(), from.Lat, from.Lon, to.Lat, to.Lon,
		&out.Distance, &out.InitialBearing, &out.FinalBearing)
	return out, nil
}
