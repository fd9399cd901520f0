package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type indexCellKey struct {
	X int
	Y int
}

type indexedElement struct {
	element IndexElement
	// lastVisit deduplicates elements spanning several cells within one
	// query without allocating per query.
	lastVisit uint64
}

// collisionIndex is a uniform grid over the map's static walls and static
// models, built once at construction. It answers radius and ray queries
// with a superset of the true candidates; callers run the precise
// per-primitive test. Dynamic walls are not indexed.
type collisionIndex struct {
	cells      map[indexCellKey][]int
	elements   []indexedElement
	generation uint64
}

func newCollisionIndex(data *MapData) *collisionIndex {
	idx := &collisionIndex{
		cells: make(map[indexCellKey][]int),
	}

	for w := range data.StaticWalls {
		wall := &data.StaticWalls[w]
		minX := math.Min(wall.Verts[0].X(), wall.Verts[1].X())
		maxX := math.Max(wall.Verts[0].X(), wall.Verts[1].X())
		minY := math.Min(wall.Verts[0].Y(), wall.Verts[1].Y())
		maxY := math.Max(wall.Verts[0].Y(), wall.Verts[1].Y())
		idx.insert(IndexElement{Kind: ElementStaticWall, Index: w}, minX, minY, maxX, maxY)
	}

	for m := range data.StaticModels {
		model := &data.StaticModels[m]
		radius := 0.0
		if model.ModelID >= 0 && model.ModelID < len(data.ModelsDescription) {
			radius = data.ModelsDescription[model.ModelID].Radius
		}
		idx.insert(
			IndexElement{Kind: ElementStaticModel, Index: m},
			model.Pos.X()-radius, model.Pos.Y()-radius,
			model.Pos.X()+radius, model.Pos.Y()+radius,
		)
	}

	return idx
}

func (idx *collisionIndex) insert(element IndexElement, minX, minY, maxX, maxY float64) {
	id := len(idx.elements)
	idx.elements = append(idx.elements, indexedElement{element: element})

	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	x1, y1 := int(math.Floor(maxX)), int(math.Floor(maxY))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			key := indexCellKey{X: x, Y: y}
			idx.cells[key] = append(idx.cells[key], id)
		}
	}
}

// ProcessElementsInRadius calls fn for every indexed element whose bounding
// cells overlap the circle. Elements spanning several cells are reported
// once.
func (idx *collisionIndex) ProcessElementsInRadius(pos mgl64.Vec2, radius float64, fn func(IndexElement)) {
	idx.generation++

	x0 := int(math.Floor(pos.X() - radius))
	x1 := int(math.Floor(pos.X() + radius))
	y0 := int(math.Floor(pos.Y() - radius))
	y1 := int(math.Floor(pos.Y() + radius))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for _, id := range idx.cells[indexCellKey{X: x, Y: y}] {
				el := &idx.elements[id]
				if el.lastVisit == idx.generation {
					continue
				}
				el.lastVisit = idx.generation
				fn(el.element)
			}
		}
	}
}

// RayCast walks the grid cells crossed by the ray up to maxDistance and
// calls fn for each indexed element found, in cell order along the ray. The
// enumeration is a superset of the true hits; fn returns true to stop the
// walk once the caller knows no nearer hit is possible.
func (idx *collisionIndex) RayCast(from, dir mgl64.Vec3, maxDistance float64, fn func(IndexElement) bool) {
	idx.generation++

	// 2D DDA over the XY plane. A purely vertical ray only ever visits the
	// starting cell.
	x := int(math.Floor(from.X()))
	y := int(math.Floor(from.Y()))

	dirX, dirY := dir.X(), dir.Y()
	horizontal := math.Hypot(dirX, dirY)
	if horizontal == 0 {
		idx.visitCell(indexCellKey{X: x, Y: y}, fn)
		return
	}

	// Distances along the ray, measured in 3D ray parameter t, needed to
	// cross one cell on each axis.
	stepX, stepY := 1, 1
	tDeltaX, tDeltaY := math.Inf(1), math.Inf(1)
	tMaxX, tMaxY := math.Inf(1), math.Inf(1)

	if dirX > 0 {
		tDeltaX = 1 / dirX
		tMaxX = (float64(x) + 1 - from.X()) / dirX
	} else if dirX < 0 {
		stepX = -1
		tDeltaX = -1 / dirX
		tMaxX = (float64(x) - from.X()) / dirX
	}
	if dirY > 0 {
		tDeltaY = 1 / dirY
		tMaxY = (float64(y) + 1 - from.Y()) / dirY
	} else if dirY < 0 {
		stepY = -1
		tDeltaY = -1 / dirY
		tMaxY = (float64(y) - from.Y()) / dirY
	}

	// Nothing is indexed outside the padded map cell range, so the walk
	// stops at the grid boundary even for unbounded rays.
	limit := math.Min(maxDistance, math.Min(
		gridExitDistance(from.X(), dirX),
		gridExitDistance(from.Y(), dirY),
	))

	traveled := 0.0
	for traveled <= limit {
		if idx.visitCell(indexCellKey{X: x, Y: y}, fn) {
			return
		}
		if tMaxX < tMaxY {
			traveled = tMaxX
			tMaxX += tDeltaX
			x += stepX
		} else {
			traveled = tMaxY
			tMaxY += tDeltaY
			y += stepY
		}
	}
}

// gridExitDistance is the ray parameter at which one axis leaves the cell
// range that insert can populate.
func gridExitDistance(from, dir float64) float64 {
	const lo, hi = -1, MapCellCount + 1
	if dir > 0 {
		return (hi - from) / dir
	}
	if dir < 0 {
		return (lo - from) / dir
	}
	return math.Inf(1)
}

func (idx *collisionIndex) visitCell(key indexCellKey, fn func(IndexElement) bool) bool {
	for _, id := range idx.cells[key] {
		el := &idx.elements[id]
		if el.lastVisit == idx.generation {
			continue
		}
		el.lastVisit = idx.generation
		if fn(el.element) {
			return true
		}
	}
	return false
}
