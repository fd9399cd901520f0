package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// HitObjectKind tags what a hit-scan ended on.
type HitObjectKind uint8

const (
	HitNone HitObjectKind = iota
	HitStaticWall
	HitDynamicWall
	HitModel
	HitMonster
	HitFloor
	HitCeiling
)

// HitResult is the nearest qualifying intersection of a hit-scan.
type HitResult struct {
	Kind      HitObjectKind
	Pos       mgl64.Vec3
	Index     int
	MonsterID EntityID
}

// CollideWithMap pushes a capsule of the given height and radius out of
// world geometry. Static walls slide the circle, models either lift the
// subject onto their top surface or push it sideways, dynamic walls are
// scanned directly, and the vertical position clamps between the floor and
// the ceiling minus height.
func (m *Map) CollideWithMap(pos mgl64.Vec3, height, radius float64) (mgl64.Vec3, bool) {
	return m.collideWithMapFrom(pos, pos, height, radius)
}

// collideWithMapFrom is CollideWithMap with the position before the step,
// which decides the side a wall ejects the body to.
func (m *Map) collideWithMapFrom(prev, pos mgl64.Vec3, height, radius float64) (mgl64.Vec3, bool) {
	prevXY := mgl64.Vec2{prev.X(), prev.Y()}
	xy := mgl64.Vec2{pos.X(), pos.Y()}
	z := pos.Z()
	onFloor := false

	m.index.ProcessElementsInRadius(xy, radius, func(el IndexElement) {
		switch el.Kind {
		case ElementStaticWall:
			wall := &m.data.StaticWalls[el.Index]
			if wall.TextureID >= 0 && wall.TextureID < len(m.data.WallTextures) &&
				m.data.WallTextures[wall.TextureID].PassThrough {
				return
			}
			if newPos, collided := collideCircleWithLineSegmentFrom(wall.Verts[0], wall.Verts[1], xy, prevXY, radius); collided {
				xy = newPos
			}

		case ElementStaticModel:
			model := &m.staticModels[el.Index]
			if model.picked {
				return
			}
			desc := m.modelDescription(model.modelID)
			geom := m.modelGeometry(model.modelID)
			if desc == nil || geom == nil || desc.Radius <= 0 {
				return
			}

			modelXY := mgl64.Vec2{model.pos.X(), model.pos.Y()}
			minDistance := desc.Radius + radius
			delta := xy.Sub(modelXY)
			if delta.Len() >= minDistance {
				return
			}

			modelZTop := model.pos.Z() + geom.ZMax
			modelZBottom := model.pos.Z() + geom.ZMin
			if z >= modelZTop || z+height <= modelZBottom {
				return
			}

			if modelZTop-z <= playerZPullDistance && modelZTop <= maxFloorLevel {
				z = modelZTop
				onFloor = true
				return
			}
			if z+height-modelZBottom <= playerZPullDistance {
				z = modelZBottom - height
				return
			}

			if delta.Len() < 1e-9 {
				delta = mgl64.Vec2{minDistance, 0}
			} else {
				delta = delta.Normalize().Mul(minDistance)
			}
			xy = modelXY.Add(delta)
		}
	})

	for w := range m.dynamicWalls {
		wall := &m.dynamicWalls[w]
		if wall.textureID >= 0 && wall.textureID < len(m.data.WallTextures) &&
			m.data.WallTextures[wall.textureID].PassThrough {
			continue
		}
		if z >= wall.z+wallsHeight || z+height <= wall.z {
			continue
		}
		if newPos, collided := collideCircleWithLineSegmentFrom(wall.verts[0], wall.verts[1], xy, prevXY, radius); collided {
			xy = newPos
		}
	}

	if z < 0 {
		z = 0
		onFloor = true
	}
	if z > wallsHeight-height {
		z = wallsHeight - height
	}

	return mgl64.Vec3{xy.X(), xy.Y(), z}, onFloor
}

// CanSee reports whether an unobstructed sight line connects two points.
// See-through walls never block sight.
func (m *Map) CanSee(from, to mgl64.Vec3) bool {
	delta := to.Sub(from)
	distance := delta.Len()
	if distance < 1e-9 {
		return true
	}
	dir := delta.Mul(1 / distance)

	blocked := false
	m.index.RayCast(from, dir, distance, func(el IndexElement) bool {
		if el.Kind != ElementStaticWall {
			return false
		}
		wall := &m.data.StaticWalls[el.Index]
		if wall.TextureID >= 0 && wall.TextureID < len(m.data.WallTextures) &&
			m.data.WallTextures[wall.TextureID].SeeThrough {
			return false
		}
		hit, ok := RayIntersectWall(wall.Verts[0], wall.Verts[1], 0, wallsHeight, from, dir)
		if !ok || hit.Sub(from).Len() > distance {
			return false
		}
		blocked = true
		return true
	})
	if blocked {
		return false
	}

	for w := range m.dynamicWalls {
		wall := &m.dynamicWalls[w]
		if wall.textureID >= 0 && wall.textureID < len(m.data.WallTextures) &&
			m.data.WallTextures[wall.textureID].SeeThrough {
			continue
		}
		hit, ok := RayIntersectWall(wall.verts[0], wall.verts[1], wall.z, wall.z+wallsHeight, from, dir)
		if ok && hit.Sub(from).Len() <= distance {
			return false
		}
	}

	return true
}

// ProcessShot casts a ray against everything shootable and returns the
// nearest hit. skipMonsterID excludes the shooter from its own shot.
func (m *Map) ProcessShot(from, normalizedDirection mgl64.Vec3, maxDistance float64, skipMonsterID EntityID) HitResult {
	result := HitResult{Kind: HitNone}
	nearest := maxDistance

	consider := func(kind HitObjectKind, pos mgl64.Vec3, index int, monsterID EntityID) {
		d := pos.Sub(from).Len()
		if d >= nearest {
			return
		}
		nearest = d
		result = HitResult{Kind: kind, Pos: pos, Index: index, MonsterID: monsterID}
	}

	// Walk the full ray: an element enumerated in a later cell can still
	// be the nearest precise hit, so no candidate stops the scan.
	m.index.RayCast(from, normalizedDirection, maxDistance, func(el IndexElement) bool {
		switch el.Kind {
		case ElementStaticWall:
			wall := &m.data.StaticWalls[el.Index]
			if wall.TextureID >= 0 && wall.TextureID < len(m.data.WallTextures) &&
				m.data.WallTextures[wall.TextureID].ShootThrough {
				return false
			}
			if hit, ok := RayIntersectWall(wall.Verts[0], wall.Verts[1], 0, wallsHeight, from, normalizedDirection); ok {
				consider(HitStaticWall, hit, el.Index, 0)
			}
		case ElementStaticModel:
			model := &m.staticModels[el.Index]
			if model.picked {
				return false
			}
			desc := m.modelDescription(model.modelID)
			geom := m.modelGeometry(model.modelID)
			if desc == nil || geom == nil || desc.Radius <= 0 {
				return false
			}
			center := mgl64.Vec2{model.pos.X(), model.pos.Y()}
			zMin := model.pos.Z() + geom.ZMin
			zMax := model.pos.Z() + geom.ZMax
			if hit, ok := RayIntersectCylinder(center, desc.Radius, zMin, zMax, from, normalizedDirection); ok {
				consider(HitModel, hit, el.Index, 0)
			}
		}
		return false
	})

	for w := range m.dynamicWalls {
		wall := &m.dynamicWalls[w]
		if wall.textureID >= 0 && wall.textureID < len(m.data.WallTextures) &&
			m.data.WallTextures[wall.textureID].ShootThrough {
			continue
		}
		if hit, ok := RayIntersectWall(wall.verts[0], wall.verts[1], wall.z, wall.z+wallsHeight, from, normalizedDirection); ok {
			consider(HitDynamicWall, hit, w, 0)
		}
	}

	for id, monster := range m.monsters {
		if id == skipMonsterID {
			continue
		}
		if hit, ok := monster.TryShot(from, normalizedDirection); ok {
			consider(HitMonster, hit, 0, id)
		}
	}

	// Floor and ceiling planes. Cells with empty or sky textures let the
	// shot pass out of the world.
	if hit, ok := RayIntersectXYPlane(0, from, normalizedDirection); ok {
		if m.floorCellSolid(hit, m.data.FloorTextures) {
			consider(HitFloor, hit, 0, 0)
		}
	}
	if hit, ok := RayIntersectXYPlane(wallsHeight, from, normalizedDirection); ok {
		if m.floorCellSolid(hit, m.data.CeilingTextures) {
			consider(HitCeiling, hit, 0, 0)
		}
	}

	return result
}

func (m *Map) floorCellSolid(hit mgl64.Vec3, textures []uint8) bool {
	x := int(math.Floor(hit.X()))
	y := int(math.Floor(hit.Y()))
	idx, ok := cellIndex(x, y)
	if !ok || idx >= len(textures) {
		return false
	}
	texture := textures[idx]
	return texture != emptyFloorTextureID && texture != skyFloorTextureID
}

func (m *Map) monsterRadius(monster Monster) float64 {
	if desc := m.monsterDescription(monster.TypeID()); desc != nil && desc.Radius > 0 {
		return desc.Radius
	}
	return playerRadius
}

// collideMonsters separates every overlapping pair of live monsters. A
// player pushes a non-player fully out of the way; a same-status pair
// splits the push evenly.
func (m *Map) collideMonsters() {
	ids := m.sortedMonsterIDs()

	for i := 0; i < len(ids); i++ {
		first := m.monsters[ids[i]]
		if first.Health() <= 0 {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			second := m.monsters[ids[j]]
			if second.Health() <= 0 {
				continue
			}

			firstPos := first.Position()
			secondPos := second.Position()

			dx := secondPos.X() - firstPos.X()
			dy := secondPos.Y() - firstPos.Y()
			if dx*dx+dy*dy > monsterCollideBroadPhase*monsterCollideBroadPhase {
				continue
			}

			firstZMin, firstZMax := first.ZMinMax()
			secondZMin, secondZMax := second.ZMinMax()
			if firstPos.Z()+firstZMax <= secondPos.Z()+secondZMin ||
				secondPos.Z()+secondZMax <= firstPos.Z()+firstZMin {
				continue
			}

			minDistance := m.monsterRadius(first) + m.monsterRadius(second)
			delta := mgl64.Vec2{dx, dy}
			distance := delta.Len()
			if distance >= minDistance {
				continue
			}

			var push mgl64.Vec2
			if distance < 1e-9 {
				push = mgl64.Vec2{minDistance, 0}
			} else {
				push = delta.Normalize().Mul(minDistance - distance)
			}

			firstIsPlayer := first.TypeID() == playerTypeID
			secondIsPlayer := second.TypeID() == playerTypeID
			switch {
			case firstIsPlayer && !secondIsPlayer:
				second.SetPosition(mgl64.Vec3{
					secondPos.X() + push.X(),
					secondPos.Y() + push.Y(),
					secondPos.Z(),
				})
			case !firstIsPlayer && secondIsPlayer:
				first.SetPosition(mgl64.Vec3{
					firstPos.X() - push.X(),
					firstPos.Y() - push.Y(),
					firstPos.Z(),
				})
			default:
				half := push.Mul(0.5)
				first.SetPosition(mgl64.Vec3{
					firstPos.X() - half.X(),
					firstPos.Y() - half.Y(),
					firstPos.Z(),
				})
				second.SetPosition(mgl64.Vec3{
					secondPos.X() + half.X(),
					secondPos.Y() + half.Y(),
					secondPos.Z(),
				})
			}
		}
	}
}

// applyMonsterWorldEffects runs teleports, wind, and the damage field for
// one monster before its map collision. It reports whether the monster was
// teleported, which invalidates its pre-step position.
func (m *Map) applyMonsterWorldEffects(id EntityID, monster Monster, now time.Time, delta time.Duration) bool {
	pos := monster.Position()

	for t := range m.data.Teleports {
		teleport := &m.data.Teleports[t]
		center := mgl64.Vec2{float64(teleport.From[0]) + 0.5, float64(teleport.From[1]) + 0.5}
		if center.Sub(mgl64.Vec2{pos.X(), pos.Y()}).Len() > teleportRadius {
			continue
		}

		var destination mgl64.Vec2
		for axis := 0; axis < 2; axis++ {
			coord := teleport.To[axis]
			if coord >= MapCellCount {
				destination[axis] = float64(coord) / 256.0
			} else {
				destination[axis] = float64(coord) + 0.5
			}
		}
		floor := m.GetFloorLevel(destination, m.monsterRadius(monster))
		monster.Teleport(mgl64.Vec3{destination.X(), destination.Y(), floor}, teleport.Angle)
		return true
	}

	if wind := m.windAt(mgl64.Vec2{pos.X(), pos.Y()}); wind.Len() > 1e-9 {
		shift := wind.Mul(windPowerScale * delta.Seconds())
		monster.SetPosition(mgl64.Vec3{pos.X() + shift.X(), pos.Y() + shift.Y(), pos.Z()})
		pos = monster.Position()
	}

	if idx, ok := cellIndex(int(math.Floor(pos.X())), int(math.Floor(pos.Y()))); ok {
		cell := m.deathField[idx]
		if cell.damage > 0 {
			zBottom := float64(cell.zBottom) / deathFieldZScale
			zTop := float64(cell.zTop) / deathFieldZScale
			zMin, zMax := monster.ZMinMax()
			if pos.Z()+zMin < zTop && pos.Z()+zMax > zBottom {
				if ticks := m.damageFieldTicks(now, delta); ticks > 0 {
					monster.Hit(int(cell.damage)*ticks, m, id, now)
				}
			}
		}
	}

	return false
}

// damageFieldTicks counts how many field damage intervals the frame
// crossed, pinning continuous damage to a fixed rate regardless of the
// tick length.
func (m *Map) damageFieldTicks(now time.Time, delta time.Duration) int {
	end := now.Sub(m.startTime).Seconds() * deathTicksPerSecond
	start := (now.Sub(m.startTime).Seconds() - delta.Seconds()) * deathTicksPerSecond
	return int(math.Floor(end)) - int(math.Floor(start))
}

// windAt bilinearly interpolates the wind field at a point.
func (m *Map) windAt(pos mgl64.Vec2) mgl64.Vec2 {
	fx := pos.X() - 0.5
	fy := pos.Y() - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	sample := func(x, y int) mgl64.Vec2 {
		idx, ok := cellIndex(x, y)
		if !ok {
			return mgl64.Vec2{}
		}
		cell := m.windField[idx]
		return mgl64.Vec2{float64(cell[0]), float64(cell[1])}
	}

	bottom := sample(x0, y0).Mul(1 - tx).Add(sample(x0+1, y0).Mul(tx))
	top := sample(x0, y0+1).Mul(1 - tx).Add(sample(x0+1, y0+1).Mul(tx))
	return bottom.Mul(1 - ty).Add(top.Mul(ty))
}
