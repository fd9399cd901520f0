package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CollideCircleWithLineSegment pushes a circle at pos out of a wall segment.
// It returns the corrected position and whether a correction happened. The
// corrected position is always at least radius away from the segment.
func CollideCircleWithLineSegment(v0, v1, pos mgl64.Vec2, radius float64) (mgl64.Vec2, bool) {
	return collideCircleWithLineSegmentFrom(v0, v1, pos, pos, radius)
}

// collideCircleWithLineSegmentFrom resolves like CollideCircleWithLineSegment
// but picks the ejection side from ref, the circle's position before the
// step. A center that crossed the wall line within one step is pushed back to
// the side it came from, never out the far side.
func collideCircleWithLineSegmentFrom(v0, v1, pos, ref mgl64.Vec2, radius float64) (mgl64.Vec2, bool) {
	edge := v1.Sub(v0)
	edgeSq := edge.Dot(edge)
	if edgeSq == 0 {
		return pushOutOfPoint(v0, pos, radius)
	}

	t := pos.Sub(v0).Dot(edge) / edgeSq
	if t <= 0 {
		return pushOutOfPoint(v0, pos, radius)
	}
	if t >= 1 {
		return pushOutOfPoint(v1, pos, radius)
	}

	closest := v0.Add(edge.Mul(t))
	toPos := pos.Sub(closest)
	distSq := toPos.Dot(toPos)

	normal := mgl64.Vec2{v0.Y() - v1.Y(), v1.X() - v0.X()}.Normalize()
	sidePos := toPos.Dot(normal)
	sideRef := ref.Sub(v0).Dot(normal)
	crossed := sideRef*sidePos < 0

	if !crossed && distSq >= radius*radius {
		return pos, false
	}

	side := sideRef
	if side == 0 {
		side = sidePos
	}
	out := normal
	if side < 0 {
		out = mgl64.Vec2{-normal.X(), -normal.Y()}
	}
	return closest.Add(out.Mul(radius)), true
}

func pushOutOfPoint(p, pos mgl64.Vec2, radius float64) (mgl64.Vec2, bool) {
	toPos := pos.Sub(p)
	distSq := toPos.Dot(toPos)
	if distSq >= radius*radius {
		return pos, false
	}
	if distSq == 0 {
		return p.Add(mgl64.Vec2{radius, 0}), true
	}
	return p.Add(toPos.Mul(radius / math.Sqrt(distSq))), true
}

// RayIntersectWall intersects a ray with the vertical quad spanned by a wall
// segment between zMin and zMax.
func RayIntersectWall(v0, v1 mgl64.Vec2, zMin, zMax float64, from, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	// Solve in 2D first: ray (from.xy + t*dir.xy) against segment v0-v1.
	edge := v1.Sub(v0)
	denom := dir.X()*edge.Y() - dir.Y()*edge.X()
	if denom == 0 {
		return mgl64.Vec3{}, false
	}

	diff := v0.Sub(mgl64.Vec2{from.X(), from.Y()})
	t := (diff.X()*edge.Y() - diff.Y()*edge.X()) / denom
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	var s float64
	if edge.X() != 0 || edge.Y() != 0 {
		if math.Abs(edge.X()) >= math.Abs(edge.Y()) {
			s = (from.X() + t*dir.X() - v0.X()) / edge.X()
		} else {
			s = (from.Y() + t*dir.Y() - v0.Y()) / edge.Y()
		}
	}
	if s < 0 || s > 1 {
		return mgl64.Vec3{}, false
	}

	z := from.Z() + t*dir.Z()
	if z < zMin || z > zMax {
		return mgl64.Vec3{}, false
	}
	return from.Add(dir.Mul(t)), true
}

// RayIntersectCylinder intersects a ray with a vertical cylinder. It returns
// the nearest intersection at or after the ray origin.
func RayIntersectCylinder(center mgl64.Vec2, radius, zMin, zMax float64, from, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	// Project on the XY plane: |from.xy + t*dir.xy - center|^2 = radius^2.
	rel := mgl64.Vec2{from.X() - center.X(), from.Y() - center.Y()}
	d2 := mgl64.Vec2{dir.X(), dir.Y()}

	a := d2.Dot(d2)
	if a == 0 {
		// Vertical ray: hits the cylinder cap plane inside the radius.
		if rel.Dot(rel) > radius*radius || dir.Z() == 0 {
			return mgl64.Vec3{}, false
		}
		capZ := zMin
		if dir.Z() < 0 {
			capZ = zMax
		}
		t := (capZ - from.Z()) / dir.Z()
		if t < 0 {
			return mgl64.Vec3{}, false
		}
		return from.Add(dir.Mul(t)), true
	}

	b := 2 * rel.Dot(d2)
	c := rel.Dot(rel) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return mgl64.Vec3{}, false
	}

	sqrtDisc := math.Sqrt(disc)
	t := (-b - sqrtDisc) / (2 * a)
	if t < 0 {
		t = (-b + sqrtDisc) / (2 * a)
	}
	if t < 0 {
		return mgl64.Vec3{}, false
	}

	z := from.Z() + t*dir.Z()
	if z < zMin || z > zMax {
		return mgl64.Vec3{}, false
	}
	return from.Add(dir.Mul(t)), true
}

// RayIntersectXYPlane intersects a ray with the horizontal plane at z.
func RayIntersectXYPlane(z float64, from, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	if dir.Z() == 0 {
		return mgl64.Vec3{}, false
	}
	t := (z - from.Z()) / dir.Z()
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return from.Add(dir.Mul(t)), true
}

// CircleIntersectsWithSquare reports whether a circle overlaps the unit map
// cell at (x, y).
func CircleIntersectsWithSquare(center mgl64.Vec2, radius float64, x, y int) bool {
	closestX := clamp(center.X(), float64(x), float64(x)+1)
	closestY := clamp(center.Y(), float64(y), float64(y)+1)
	dx := center.X() - closestX
	dy := center.Y() - closestY
	return dx*dx+dy*dy < radius*radius
}

// clamp limits value to the range [min, max].
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
