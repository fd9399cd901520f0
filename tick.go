package main

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/logging"
)

// Tick advances the whole simulation by one step. The order is fixed:
// procedures, object poses, model animation, projectiles and mines,
// monster updates with world effects, map collision, monster separation,
// then the map-end report. The callback runs last so its receiver may tear
// the map down safely.
func (m *Map) Tick(now time.Time, delta time.Duration) {
	m.tick++

	m.processProcedures(now)
	m.moveMapObjects(now)
	m.processStaticModelsAnimation(now)
	m.processRockets(now, delta)
	m.processMines(now)

	ids := m.sortedMonsterIDs()
	prevPos := make(map[EntityID]mgl64.Vec3, len(ids))
	for _, id := range ids {
		monster, ok := m.monsters[id]
		if !ok {
			continue
		}
		prevPos[id] = monster.Position()
		monster.Tick(m, id, now, delta)
		if m.applyMonsterWorldEffects(id, monster, now, delta) {
			prevPos[id] = monster.Position()
		}
	}

	for _, id := range ids {
		monster, ok := m.monsters[id]
		if !ok {
			continue
		}
		if player, isPlayer := m.players[id]; isPlayer && player.IsNoclip() {
			continue
		}
		prev, tracked := prevPos[id]
		if !tracked {
			prev = monster.Position()
		}
		m.collideMonsterWithMap(monster, prev)
	}

	m.collideMonsters()

	if m.mapEndTriggered {
		m.mapEndTriggered = false
		if !m.mapEndReported {
			m.mapEndReported = true
			m.publish(logging.EventMapEnd, logging.SeverityInfo,
				logging.EntityRef{Kind: logging.EntityKindMap}, nil)
			if m.endCallback != nil {
				m.endCallback()
			}
		}
	}
}

// collideMonsterWithMap resolves one monster against world geometry and
// clamps its stored velocity along every axis the resolution changed. prev
// is the monster's position before this tick moved it.
func (m *Map) collideMonsterWithMap(monster Monster, prev mgl64.Vec3) {
	pos := monster.Position()
	zMin, zMax := monster.ZMinMax()
	height := zMax - zMin

	newPos, onFloor := m.collideWithMapFrom(prev, pos, height, m.monsterRadius(monster))

	dxy := mgl64.Vec2{newPos.X() - pos.X(), newPos.Y() - pos.Y()}
	if dxy.Len() > 1e-9 {
		n := dxy.Normalize()
		monster.ClampSpeed(mgl64.Vec3{n.X(), n.Y(), 0})
	}
	if newPos.Z() > pos.Z() {
		monster.ClampSpeed(mgl64.Vec3{0, 0, 1})
	} else if newPos.Z() < pos.Z() {
		monster.ClampSpeed(mgl64.Vec3{0, 0, -1})
	}

	monster.SetPosition(newPos)
	monster.SetOnFloor(onFloor)
}
