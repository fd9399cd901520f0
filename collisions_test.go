package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func pointSegmentDistance(v0, v1, p mgl64.Vec2) float64 {
	edge := v1.Sub(v0)
	t := p.Sub(v0).Dot(edge) / edge.Dot(edge)
	t = clamp(t, 0, 1)
	return p.Sub(v0.Add(edge.Mul(t))).Len()
}

func TestCircleSegmentResolutionNeverPenetrates(t *testing.T) {
	v0 := mgl64.Vec2{2, 2}
	v1 := mgl64.Vec2{8, 5}
	const radius = 0.7

	for i := 0; i < 200; i++ {
		angle := float64(i) * 0.17
		dist := 0.05 + math.Mod(float64(i)*0.031, radius)
		along := math.Mod(float64(i)*0.047, 1.0)

		base := v0.Add(v1.Sub(v0).Mul(along))
		pos := base.Add(mgl64.Vec2{math.Cos(angle), math.Sin(angle)}.Mul(dist))

		resolved, collided := CollideCircleWithLineSegment(v0, v1, pos, radius)
		if !collided {
			continue
		}
		if got := pointSegmentDistance(v0, v1, resolved); got < radius-1e-9 {
			t.Fatalf("case %d: resolved position penetrates segment: distance %.9f < radius %.9f", i, got, radius)
		}
	}
}

func TestCircleSegmentStepAcrossWallReturnsToNearSide(t *testing.T) {
	v0 := mgl64.Vec2{5, 11}
	v1 := mgl64.Vec2{15, 11}

	// The center stepped from y=10.8 clean across the wall line to y=11.5
	// within one frame. Resolution must place it back on the approach side,
	// even though the new center is already more than radius past the wall.
	resolved, collided := collideCircleWithLineSegmentFrom(v0, v1, mgl64.Vec2{10, 11.5}, mgl64.Vec2{10, 10.8}, 0.4)
	if !collided {
		t.Fatalf("a step across the wall must count as a collision")
	}
	if math.Abs(resolved.Y()-10.6) > 1e-9 {
		t.Fatalf("expected ejection to y=10.6 on the approach side, got %v", resolved)
	}

	// Approaching from the far side ejects to the far side.
	resolved, collided = collideCircleWithLineSegmentFrom(v0, v1, mgl64.Vec2{10, 11.1}, mgl64.Vec2{10, 11.6}, 0.4)
	if !collided || math.Abs(resolved.Y()-11.4) > 1e-9 {
		t.Fatalf("expected ejection to y=11.4, got %v collided=%v", resolved, collided)
	}
}

func TestCircleSegmentResolutionOutsideRadiusUntouched(t *testing.T) {
	v0 := mgl64.Vec2{0, 0}
	v1 := mgl64.Vec2{4, 0}
	if _, collided := CollideCircleWithLineSegment(v0, v1, mgl64.Vec2{2, 3}, 1); collided {
		t.Fatalf("expected no collision 3 units away from the segment")
	}
}

func TestRayIntersectWallHitsBetweenEndpoints(t *testing.T) {
	hit, ok := RayIntersectWall(mgl64.Vec2{5, 0}, mgl64.Vec2{5, 4}, 0, 2, mgl64.Vec3{0, 2, 1}, mgl64.Vec3{1, 0, 0})
	if !ok {
		t.Fatalf("expected a hit on the wall")
	}
	if math.Abs(hit.X()-5) > 1e-9 || math.Abs(hit.Y()-2) > 1e-9 || math.Abs(hit.Z()-1) > 1e-9 {
		t.Fatalf("unexpected hit point %v", hit)
	}

	if _, ok := RayIntersectWall(mgl64.Vec2{5, 0}, mgl64.Vec2{5, 4}, 0, 2, mgl64.Vec3{0, 6, 1}, mgl64.Vec3{1, 0, 0}); ok {
		t.Fatalf("ray passing beyond the far endpoint must miss")
	}
	if _, ok := RayIntersectWall(mgl64.Vec2{5, 0}, mgl64.Vec2{5, 4}, 0, 2, mgl64.Vec3{0, 2, 3}, mgl64.Vec3{1, 0, 0}); ok {
		t.Fatalf("ray above the wall's vertical band must miss")
	}
}

func TestRayIntersectCylinder(t *testing.T) {
	center := mgl64.Vec2{5, 5}
	hit, ok := RayIntersectCylinder(center, 1, 0, 2, mgl64.Vec3{0, 5, 1}, mgl64.Vec3{1, 0, 0})
	if !ok {
		t.Fatalf("expected a side hit")
	}
	if math.Abs(hit.X()-4) > 1e-9 {
		t.Fatalf("expected hit at the near side x=4, got %v", hit)
	}

	if _, ok := RayIntersectCylinder(center, 1, 0, 2, mgl64.Vec3{0, 8, 1}, mgl64.Vec3{1, 0, 0}); ok {
		t.Fatalf("ray 3 units off axis must miss a radius-1 cylinder")
	}

	// Vertical ray through the cap.
	hit, ok = RayIntersectCylinder(center, 1, 0, 2, mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, 0, -1})
	if !ok {
		t.Fatalf("expected a cap hit from above")
	}
	if math.Abs(hit.Z()-2) > 1e-9 {
		t.Fatalf("expected cap hit at z=2, got %v", hit)
	}
}

func TestRayIntersectXYPlane(t *testing.T) {
	hit, ok := RayIntersectXYPlane(0, mgl64.Vec3{1, 1, 2}, mgl64.Vec3{0, 0, -1})
	if !ok || math.Abs(hit.Z()) > 1e-9 {
		t.Fatalf("expected floor hit at z=0, got %v ok=%v", hit, ok)
	}
	if _, ok := RayIntersectXYPlane(0, mgl64.Vec3{1, 1, 2}, mgl64.Vec3{0, 0, 1}); ok {
		t.Fatalf("ray pointing away from the plane must miss")
	}
}

func TestCircleIntersectsWithSquare(t *testing.T) {
	if !CircleIntersectsWithSquare(mgl64.Vec2{4.5, 4.5}, 0.1, 4, 4) {
		t.Fatalf("circle inside the cell must intersect")
	}
	if !CircleIntersectsWithSquare(mgl64.Vec2{3.9, 4.5}, 0.2, 4, 4) {
		t.Fatalf("circle overlapping the cell edge must intersect")
	}
	if CircleIntersectsWithSquare(mgl64.Vec2{2, 2}, 0.5, 4, 4) {
		t.Fatalf("circle far from the cell must not intersect")
	}
}
