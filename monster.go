package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Monster is the capability interface shared by every world entity the map
// owns, players included. Decision-making lives behind Tick; the map only
// drives physical integration and combat resolution.
type Monster interface {
	Position() mgl64.Vec3
	SetPosition(pos mgl64.Vec3)
	Angle() float64
	Teleport(pos mgl64.Vec3, angle float64)

	ClampSpeed(clampSurface mgl64.Vec3)
	SetOnFloor(onFloor bool)

	Health() int
	Hit(damage int, m *Map, selfID EntityID, now time.Time)

	Tick(m *Map, selfID EntityID, now time.Time, delta time.Duration)

	// TryShot tests a ray against the monster's body and returns the
	// intersection point when it hits.
	TryShot(from, dir mgl64.Vec3) (mgl64.Vec3, bool)

	// TypeID returns the monster type; playerTypeID identifies players.
	TypeID() uint8
	// ZMinMax returns the vertical extent relative to the position.
	ZMinMax() (float64, float64)

	CurrentAnimation() uint16
	CurrentAnimationFrame() uint16
	BodyPartsMask() uint16

	SetRandomSource(rng *rand.Rand)
}

const monsterGravity = 9.8

// monsterBody holds the state every concrete monster shares.
type monsterBody struct {
	pos     mgl64.Vec3
	angle   float64
	speed   mgl64.Vec3
	health  int
	onFloor bool

	animation      uint16
	animationStart time.Time
	currentFrame   uint16
	rng            *rand.Rand
}

func (b *monsterBody) Position() mgl64.Vec3 { return b.pos }

func (b *monsterBody) SetPosition(pos mgl64.Vec3) { b.pos = pos }

func (b *monsterBody) Angle() float64 { return b.angle }

func (b *monsterBody) Teleport(pos mgl64.Vec3, angle float64) {
	b.pos = pos
	b.angle = angle
	b.speed = mgl64.Vec3{}
}

// ClampSpeed removes the velocity component pushing into a contact surface.
// The argument is the direction the body was displaced by the resolver.
func (b *monsterBody) ClampSpeed(clampSurface mgl64.Vec3) {
	d := b.speed.Dot(clampSurface)
	if d < 0 {
		b.speed = b.speed.Sub(clampSurface.Mul(d))
	}
}

func (b *monsterBody) SetOnFloor(onFloor bool) { b.onFloor = onFloor }

func (b *monsterBody) Health() int { return b.health }

func (b *monsterBody) CurrentAnimation() uint16 { return b.animation }

func (b *monsterBody) CurrentAnimationFrame() uint16 { return b.currentFrame }

func (b *monsterBody) BodyPartsMask() uint16 { return 0xFFFF }

func (b *monsterBody) SetRandomSource(rng *rand.Rand) { b.rng = rng }

func (b *monsterBody) animationFrameAt(now time.Time) uint16 {
	if b.animationStart.IsZero() {
		return 0
	}
	frames := now.Sub(b.animationStart).Seconds() * animationsFramesPerSecond
	if frames < 0 {
		return 0
	}
	return uint16(frames)
}

// integrate advances position from velocity and applies gravity while
// airborne. Collision correction happens afterwards in the map's resolver
// pass.
func (b *monsterBody) integrate(dt float64) {
	if !b.onFloor {
		b.speed = b.speed.Sub(mgl64.Vec3{0, 0, monsterGravity * dt})
	} else if b.speed.Z() < 0 {
		b.speed[2] = 0
	}
	b.pos = b.pos.Add(b.speed.Mul(dt))
}

// tryShotCylinder is the shared body-hit test: a vertical cylinder of the
// given radius over the body's z extent.
func (b *monsterBody) tryShotCylinder(radius, zMin, zMax float64, from, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	if b.health <= 0 {
		return mgl64.Vec3{}, false
	}
	return RayIntersectCylinder(
		mgl64.Vec2{b.pos.X(), b.pos.Y()}, radius,
		b.pos.Z()+zMin, b.pos.Z()+zMax,
		from, dir,
	)
}

// npcMonster is a map-owned non-player monster. Its decisions are
// deliberately simple: face and walk toward the nearest visible player.
// Physical integration and combat resolution are faithful; anything
// smarter belongs to an external brain.
type npcMonster struct {
	monsterBody
	typeID uint8
	radius float64
}

func newNPCMonster(placement MonsterPlacement, floorZ float64, resources *GameResources, rng *rand.Rand, now time.Time) *npcMonster {
	m := &npcMonster{
		typeID: placement.MonsterID,
	}
	m.pos = mgl64.Vec3{placement.Pos.X(), placement.Pos.Y(), floorZ}
	m.angle = placement.Angle
	m.animationStart = now
	m.rng = rng

	m.health = 10
	m.radius = playerRadius
	if int(placement.MonsterID) < len(resources.MonstersDescription) {
		desc := resources.MonstersDescription[placement.MonsterID]
		if desc.Life > 0 {
			m.health = desc.Life
		}
		if desc.Radius > 0 {
			m.radius = desc.Radius
		}
	}
	return m
}

func (m *npcMonster) TypeID() uint8 { return m.typeID }

func (m *npcMonster) ZMinMax() (float64, float64) { return 0, playerHeight }

func (m *npcMonster) TryShot(from, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	zMin, zMax := m.ZMinMax()
	return m.tryShotCylinder(m.radius, zMin, zMax, from, dir)
}

func (m *npcMonster) Hit(damage int, mp *Map, selfID EntityID, now time.Time) {
	if m.health <= 0 {
		return
	}
	m.health -= damage
	if m.health <= 0 {
		m.speed = mgl64.Vec3{}
		m.animationStart = now
		mp.PlayMonsterSound(selfID, monsterSoundDeath)
	} else {
		mp.PlayMonsterSound(selfID, monsterSoundPain)
	}
}

const npcWalkSpeed = 1.5

func (m *npcMonster) Tick(mp *Map, selfID EntityID, now time.Time, delta time.Duration) {
	dt := delta.Seconds()
	if m.health <= 0 {
		m.integrate(dt)
		m.currentFrame = m.animationFrameAt(now)
		return
	}

	eyes := m.pos.Add(mgl64.Vec3{0, 0, playerHeight * 0.5})
	if target, ok := mp.FindNearestPlayerPos(eyes); ok && mp.CanSee(eyes, target) {
		toTarget := mgl64.Vec2{target.X() - m.pos.X(), target.Y() - m.pos.Y()}
		if dist := toTarget.Len(); dist > 1 {
			m.angle = math.Atan2(toTarget.Y(), toTarget.X())
			step := toTarget.Mul(npcWalkSpeed / dist)
			m.speed[0] = step.X()
			m.speed[1] = step.Y()
		} else {
			m.speed[0] = 0
			m.speed[1] = 0
		}
	} else {
		m.speed[0] = 0
		m.speed[1] = 0
	}

	m.integrate(dt)
	m.currentFrame = m.animationFrameAt(now)
}
