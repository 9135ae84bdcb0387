package geometry

import "math"

// Vec3 is a cartesian point.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v[0] * k, v[1] * k, v[2] * k} }

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Spherical is (radius, theta, phi). Theta is the polar angle from +z in
// [0, pi]; phi is the azimuth in (-pi, pi].
type Spherical struct {
	Radius float64 `json:"radius"`
	Theta  float64 `json:"theta"`
	Phi    float64 `json:"phi"`
}

func ToSpherical(v Vec3) Spherical {
	x, y, z := v[0], v[1], v[2]
	return Spherical{
		Radius: v.Len(),
		Theta:  math.Atan2(math.Sqrt(x*x+y*y), z),
		Phi:    math.Atan2(y, x),
	}
}
