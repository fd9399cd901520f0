package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/messages"
)

func rocketTravelSpeed(desc *RocketDescription) float64 {
	if desc.Fast {
		return fastRocketsSpeed
	}
	return rocketsSpeed
}

// rotateTowardNearestPlayer turns a homing rocket's heading by at most the
// homing rate for this tick. A default up axis takes over when heading and
// target direction are nearly colinear.
func (m *Map) rotateTowardNearestPlayer(rocket *Rocket, delta time.Duration) {
	target, ok := m.FindNearestPlayerPos(rocket.previousPosition)
	if !ok {
		return
	}
	target[2] += playerHeight * 0.5

	toTarget := target.Sub(rocket.previousPosition)
	if toTarget.Len() < 1e-9 {
		return
	}
	toTarget = toTarget.Normalize()

	dot := clamp(rocket.direction.Dot(toTarget), -1, 1)
	angle := math.Acos(dot)
	if angle < 1e-6 {
		return
	}

	maxTurn := homingRotSpeed * delta.Seconds()
	if angle > maxTurn {
		angle = maxTurn
	}

	axis := rocket.direction.Cross(toTarget)
	if axis.Len() < 1e-6 {
		axis = mgl64.Vec3{0, 0, 1}
	} else {
		axis = axis.Normalize()
	}

	rocket.direction = mgl64.QuatRotate(angle, axis).Rotate(rocket.direction).Normalize()
}

// rocketPositionAt runs one tick of the rocket's motion model and returns
// the new position.
func (m *Map) rocketPositionAt(rocket *Rocket, desc *RocketDescription, now time.Time, delta time.Duration) mgl64.Vec3 {
	speed := rocketTravelSpeed(desc)

	switch {
	case desc.Reflect:
		rocket.speed[2] -= desc.GravityForce * rocketsGravityScale * delta.Seconds()
		return rocket.previousPosition.Add(rocket.speed.Mul(delta.Seconds()))

	case desc.Homing:
		return rocket.previousPosition.Add(rocket.direction.Mul(speed * delta.Seconds()))

	case desc.GravityForce > 0:
		t := now.Sub(rocket.startTime).Seconds()
		pos := rocket.startPoint.Add(rocket.direction.Mul(speed * t))
		pos[2] -= desc.GravityForce * rocketsGravityScale * t * t * 0.5
		return pos

	default:
		t := now.Sub(rocket.startTime).Seconds()
		return rocket.startPoint.Add(rocket.direction.Mul(speed * t))
	}
}

// emitRocketTrail drops smoke particles along the step at a fixed density.
// The monotonic track length keeps spacing even across ticks.
func (m *Map) emitRocketTrail(rocket *Rocket, desc *RocketDescription, stepDir mgl64.Vec3, stepLength float64) {
	if desc.SmokeTrailID == 0 || stepLength <= 0 {
		return
	}

	before := int(rocket.trackLength * trailParticlesPerUnit)
	after := int((rocket.trackLength + stepLength) * trailParticlesPerUnit)
	for k := before + 1; k <= after; k++ {
		along := float64(k)/trailParticlesPerUnit - rocket.trackLength
		pos := rocket.previousPosition.Add(stepDir.Mul(along))
		m.events.spriteEffects = append(m.events.spriteEffects, SpriteEffect{
			pos:      pos,
			effectID: desc.SmokeTrailID,
		})
	}
	rocket.trackLength += stepLength
}

// genParticleEffectForRocketHit plays the impact visuals of a rocket type.
func (m *Map) genParticleEffectForRocketHit(pos mgl64.Vec3, rocketTypeID uint8) {
	desc := &m.resources.RocketsDescription[rocketTypeID]
	switch desc.BlowEffect {
	case 1:
		m.AddParticleEffect(pos, ParticleEffectBullet)
	case 2:
		m.AddParticleEffect(pos, ParticleEffectSparkles)
	case 3, 4:
		m.AddParticleEffect(pos, ParticleEffectExplosion)
		m.PlayMapEventSound(pos, soundExplosion)
	}
}

// dispatchRocketHit applies the consequences of a hit by struck-object
// kind: shoot links for walls, damage and destruction for models, the hit
// contract for monsters, visuals only for the floor planes.
func (m *Map) dispatchRocketHit(rocket *Rocket, desc *RocketDescription, hit HitResult, now time.Time) {
	effectPos := hit.Pos.Sub(rocket.direction.Mul(wallHitEffectOffset))

	switch hit.Kind {
	case HitStaticWall:
		m.processElementLinks(ElementStaticWall, hit.Index, func(link Link) {
			if link.Kind == LinkShoot {
				m.ProcedureProcessShoot(link.ProcID, now)
			}
		})
		m.genParticleEffectForRocketHit(effectPos, rocket.typeID)

	case HitDynamicWall:
		m.processElementLinks(ElementDynamicWall, hit.Index, func(link Link) {
			if link.Kind == LinkShoot {
				m.ProcedureProcessShoot(link.ProcID, now)
			}
		})
		m.genParticleEffectForRocketHit(effectPos, rocket.typeID)

	case HitModel:
		m.processElementLinks(ElementStaticModel, hit.Index, func(link Link) {
			if link.Kind == LinkShoot {
				m.ProcedureProcessShoot(link.ProcID, now)
			}
		})
		model := &m.staticModels[hit.Index]
		if modelDesc := m.modelDescription(model.modelID); modelDesc != nil && modelDesc.BreakLimit > 0 {
			model.health -= desc.Power
			if model.health <= 0 {
				m.destroyModel(hit.Index, now)
			}
		}
		m.genParticleEffectForRocketHit(effectPos, rocket.typeID)

	case HitMonster:
		if monster, ok := m.monsters[hit.MonsterID]; ok {
			monster.Hit(desc.Power, m, hit.MonsterID, now)
			m.AddParticleEffect(hit.Pos, ParticleEffectBlood)
		}

	case HitFloor, HitCeiling:
		m.genParticleEffectForRocketHit(hit.Pos, rocket.typeID)
	}
}

// processRockets advances every rocket one tick. Removal swaps with the
// last element, so relative order of survivors is not preserved.
func (m *Map) processRockets(now time.Time, delta time.Duration) {
	for r := 0; r < len(m.rockets); {
		rocket := &m.rockets[r]
		desc := &m.resources.RocketsDescription[rocket.typeID]

		removed := false

		if desc.InstantHit() {
			hit := m.ProcessShot(rocket.startPoint, rocket.direction, math.Inf(1), rocket.ownerID)
			m.dispatchRocketHit(rocket, desc, hit, now)
			removed = true
		} else {
			if desc.Homing {
				m.rotateTowardNearestPlayer(rocket, delta)
			}

			newPos := m.rocketPositionAt(rocket, desc, now, delta)

			hit := HitResult{Kind: HitNone}
			step := newPos.Sub(rocket.previousPosition)
			stepLength := step.Len()
			if stepLength > sweepLengthEps {
				stepDir := step.Mul(1 / stepLength)
				hit = m.ProcessShot(rocket.previousPosition, stepDir, stepLength, rocket.ownerID)
			}

			if hit.Kind == HitFloor && desc.Reflect {
				// Bounce off the floor instead of dying on it.
				rocket.speed[2] = math.Abs(rocket.speed[2])
				newPos[2] = math.Abs(newPos[2])
				hit = HitResult{Kind: HitNone}
			}

			if hit.Kind != HitNone {
				m.dispatchRocketHit(rocket, desc, hit, now)
				removed = true
			} else {
				if stepLength > 0 {
					stepDir := step.Mul(1 / stepLength)
					m.emitRocketTrail(rocket, desc, stepDir, stepLength)
				}
				rocket.previousPosition = newPos
				if now.Sub(rocket.startTime).Seconds() > rocketMaxAgeSeconds {
					removed = true
				}
			}

			if removed {
				m.events.rocketDeaths = append(m.events.rocketDeaths, messages.RocketDeath{
					RocketID: uint16(rocket.id),
				})
			}
		}

		if removed {
			m.rockets[r] = m.rockets[len(m.rockets)-1]
			m.rockets = m.rockets[:len(m.rockets)-1]
		} else {
			r++
		}
	}
}

// processMines arms, triggers, and expires planted mines. Blast damage to
// monsters is intentionally not applied.
func (m *Map) processMines(now time.Time) {
	ids := m.sortedMonsterIDs()

	for i := 0; i < len(m.mines); {
		mine := &m.mines[i]
		age := now.Sub(mine.plantTime).Seconds()

		removed := false
		switch {
		case age > mineMaxAgeSeconds:
			removed = true

		case age >= minePreparationSeconds:
			if !mine.turnedOn {
				mine.turnedOn = true
				m.PlayMapEventSound(mine.pos, soundMineOn)
			}
			for _, id := range ids {
				monster := m.monsters[id]
				if monster.Health() <= 0 {
					continue
				}
				pos := monster.Position()
				dx := pos.X() - mine.pos.X()
				dy := pos.Y() - mine.pos.Y()
				if dx*dx+dy*dy > mineBroadPhaseRadius*mineBroadPhaseRadius {
					continue
				}
				if math.Hypot(dx, dy) <= mineActivationRadius+m.monsterRadius(monster) {
					m.AddParticleEffect(mine.pos, ParticleEffectExplosion)
					m.PlayMapEventSound(mine.pos, soundExplosion)
					removed = true
					break
				}
			}
		}

		if removed {
			m.events.dynamicItemDeaths = append(m.events.dynamicItemDeaths, messages.DynamicItemDeath{
				ItemID: uint16(mine.id),
			})
			m.mines[i] = m.mines[len(m.mines)-1]
			m.mines = m.mines[:len(m.mines)-1]
		} else {
			i++
		}
	}
}
