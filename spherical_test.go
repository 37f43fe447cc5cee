package traverse

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func eqish(x, y float64, prec int) bool {
	return math.Abs(x-y) < float64(1.0)/math.Pow10(prec)
}

// angleEqish compares bearings across the 0/360 seam.
func angleEqish(x, y float64, prec int) bool {
	return eqish(wrap180(x-y), 0, prec)
}

func TestSpherical(t *testing.T) {
	globe, err := NewSphere("globe", 6371000)
	if err != nil {
		t.Fatal(err)
	}
	if !globe.Spherical() {
		t.Fatal()
	}
	if globe.Flattening() != 0 {
		t.Fatal()
	}
	if globe.MeanRadius() != 6371000 {
		t.Fatalf("expected mean radius 6371000, got %f", globe.MeanRadius())
	}
	if wrap180(-181) != 179 {
		t.Fatal()
	}
	if wrap180(+181) != -179 {
		t.Fatal()
	}

	r, err := SphericalSolver{}.SolveDirect(Coordinate{}, 0, 1000, globe)
	if err != nil {
		t.Fatal(err)
	}
	if !eqish(r.Destination.Lat, 1000.0/6371000*degrees, 12) || r.Destination.Lon != 0 {
		t.Fatalf("north offset: got %s", r.Destination)
	}
	if !r.Converged || r.Iterations != 0 || r.Method != Spherical {
		t.Fatalf("unexpected result %+v", r)
	}

	rng := rand.New(rand.NewSource(20190401))
	for i := 0; i < 100_000; i++ {
		lat1 := rng.Float64()*178 - 89
		lon1 := rng.Float64()*360 - 180
		lat2 := rng.Float64()*178 - 89
		lon2 := rng.Float64()*360 - 180

		var s12, azi1, azi2 float64
		sphericalInverse(globe.MeanRadius(), lat1, lon1, lat2, lon2, &s12, &azi1, &azi2)
		if s12 < 1 {
			continue
		}
		ret, err := SphericalSolver{}.SolveDirect(Coordinate{lat1, lon1}, azi1, s12, globe)
		if err != nil {
			t.Fatal(err)
		}
		if !eqish(ret.Destination.Lat, lat2, 4) ||
			!angleEqish(ret.Destination.Lon, lon2, 4) ||
			!angleEqish(ret.FinalBearing, azi2, 4) {
			t.Fatalf("direct failure (%f %f %f %f %f %f %f)",
				lat1, lon1, lat2, lon2, s12, azi1, azi2)
		}
		if !eqish(distance(globe.MeanRadius(), lat1, lon1, ret.Destination.Lat, ret.Destination.Lon), s12, 3) {
			t.Fatalf("round trip distance (%f %f %f %f)", lat1, lon1, lat2, lon2)
		}
	}
}

func TestSphericalPole(t *testing.T) {
	globe, _ := NewSphere("globe", 6371000)
	r, err := SphericalSolver{}.SolveDirect(Coordinate{0, 10}, 0, math.Pi/2*6371000, globe)
	if err != nil {
		t.Fatal(err)
	}
	if r.Destination.Lat != 90 {
		t.Fatalf("expected the north pole, got %s", r.Destination)
	}
	if r.FinalBearing != 0 {
		t.Fatalf("expected the bearing to be kept at the pole, got %f", r.FinalBearing)
	}
}

func TestSphericalFromPole(t *testing.T) {
	for _, origin := range []Coordinate{{90, 30}, {-90, 30}} {
		for _, b := range []float64{0, 45, 180, 270, 333} {
			sph, err := Direct(Spherical, origin, b, 10000, nil)
			if err != nil {
				t.Fatal(err)
			}
			ser, err := Direct(EllipsoidalSeries, origin, b, 10000, nil)
			if err != nil {
				t.Fatal(err)
			}
			avg, err := Direct(Averaged, origin, b, 10000, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !angleEqish(sph.Destination.Lon, ser.Destination.Lon, 7) {
				t.Fatalf("%s bearing %v: spherical lon %f, series lon %f",
					origin, b, sph.Destination.Lon, ser.Destination.Lon)
			}
			if !angleEqish(avg.Destination.Lon, ser.Destination.Lon, 7) {
				t.Fatalf("%s bearing %v: averaged lon %f, series lon %f",
					origin, b, avg.Destination.Lon, ser.Destination.Lon)
			}
			if !angleEqish(sph.FinalBearing, ser.FinalBearing, 7) {
				t.Fatalf("%s bearing %v: spherical final %f, series final %f",
					origin, b, sph.FinalBearing, ser.FinalBearing)
			}
			if math.Abs(sph.Destination.Lat) >= 90 || math.Signbit(sph.Destination.Lat) != math.Signbit(origin.Lat) {
				t.Fatalf("%s bearing %v: unexpected lat %f", origin, b, sph.Destination.Lat)
			}
		}
	}

	// three quarters of a great circle passes the far pole
	globe, _ := NewSphere("globe", 6371000)
	r, err := SphericalSolver{}.SolveDirect(Coordinate{90, 30}, 0, 1.5*math.Pi*6371000, globe)
	if err != nil {
		t.Fatal(err)
	}
	if !eqish(r.Destination.Lat, 0, 9) || !angleEqish(r.Destination.Lon, 30, 9) || r.FinalBearing != 0 {
		t.Fatalf("unexpected destination %s bearing %f", r.Destination, r.FinalBearing)
	}
}

func TestSphericalRejectsInput(t *testing.T) {
	cases := []struct {
		origin   Coordinate
		bearing  float64
		distance float64
		want     error
	}{
		{Coordinate{91, 0}, 0, 1, ErrInvalidCoordinate},
		{Coordinate{math.NaN(), 0}, 0, 1, ErrInvalidCoordinate},
		{Coordinate{0, 0}, math.Inf(1), 1, ErrInvalidBearing},
		{Coordinate{0, 0}, 0, -1, ErrInvalidDistance},
		{Coordinate{0, 0}, 0, math.NaN(), ErrInvalidDistance},
	}
	for _, c := range cases {
		_, err := SphericalSolver{}.SolveDirect(c.origin, c.bearing, c.distance, nil)
		if err == nil || !errors.Is(err, c.want) {
			t.Fatalf("%+v: expected %v, got %v", c, c.want, err)
		}
	}
}
