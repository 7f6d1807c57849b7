package ir

// Vector2 is a two-dimensional vector or point.
type Vector2 struct {
	X, Y float64
}

// Vector3 is a three-dimensional vector or point.
type Vector3 struct {
	X, Y, Z float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Origin Vector2
	Size   Vector2
}

// Color is an RGBA color with float channels.
type Color struct {
	R, G, B, A float64
}

// Matrix3 is a 3×3 affine transform in row-major order.
type Matrix3 struct {
	M00, M01, M02 float64
	M10, M11, M12 float64
	M20, M21, M22 float64
}

// Identity3 is the identity transform.
var Identity3 = Matrix3{M00: 1, M11: 1, M22: 1}

// DefaultTilt is the tilt reported by devices without tilt sensing.
var DefaultTilt = Vector3{X: 0, Y: 1, Z: 1}
