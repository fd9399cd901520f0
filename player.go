package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const playerMaxHealth = 100
const playerMoveSpeed = 5.0

// Player is the player-controlled monster variant. Player-only state (keys,
// noclip, trigger latch, pickups) is reachable only through the map's
// player view, never through downcasts in hot paths.
type Player struct {
	monsterBody

	redKey   bool
	greenKey bool
	blueKey  bool

	noclip bool

	// activatedProcedure latches the last proximity-triggered procedure so
	// standing inside the same trigger region does not re-fire it.
	activatedProcedure int

	intentX float64
	intentY float64

	lastHeartbeat time.Time
	lastRTT       time.Duration
}

func NewPlayer() *Player {
	p := &Player{activatedProcedure: -1}
	p.health = playerMaxHealth
	return p
}

func (p *Player) TypeID() uint8 { return playerTypeID }

func (p *Player) ZMinMax() (float64, float64) { return 0, playerHeight }

func (p *Player) HaveRedKey() bool   { return p.redKey }
func (p *Player) HaveGreenKey() bool { return p.greenKey }
func (p *Player) HaveBlueKey() bool  { return p.blueKey }

func (p *Player) GiveRedKey()   { p.redKey = true }
func (p *Player) GiveGreenKey() { p.greenKey = true }
func (p *Player) GiveBlueKey()  { p.blueKey = true }

func (p *Player) IsNoclip() bool       { return p.noclip }
func (p *Player) SetNoclip(value bool) { p.noclip = value }

// SetIntent stores the client's normalized movement wish for the next tick.
func (p *Player) SetIntent(dx, dy float64) {
	length := math.Hypot(dx, dy)
	if length > 1 {
		dx /= length
		dy /= length
	}
	p.intentX = dx
	p.intentY = dy
}

func (p *Player) SetAngle(angle float64) { p.angle = angle }

// TryActivateProcedure reports whether the player may fire the procedure
// and latches it. Re-entry of the same continuous trigger region is
// idempotent until ResetActivatedProcedure.
func (p *Player) TryActivateProcedure(procedure int, _ time.Time) bool {
	if procedure == p.activatedProcedure {
		return false
	}
	p.activatedProcedure = procedure
	return true
}

func (p *Player) ResetActivatedProcedure() {
	p.activatedProcedure = -1
}

func (p *Player) ActivatedProcedure() int { return p.activatedProcedure }

// TryPickupItem reports whether the player accepts an item of the given
// category. Health pickups are refused at full health; everything else is
// taken.
func (p *Player) TryPickupItem(code ACode) bool {
	switch {
	case code == ACodeItemLife || code == ACodeItemBigLife:
		if p.health >= playerMaxHealth {
			return false
		}
		heal := 20
		if code == ACodeItemBigLife {
			heal = 50
		}
		p.health += heal
		if p.health > playerMaxHealth {
			p.health = playerMaxHealth
		}
		return true
	default:
		return true
	}
}

func (p *Player) TryShot(from, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	zMin, zMax := p.ZMinMax()
	return p.tryShotCylinder(playerRadius, zMin, zMax, from, dir)
}

func (p *Player) Hit(damage int, m *Map, selfID EntityID, now time.Time) {
	if p.health <= 0 {
		return
	}
	p.health -= damage
	if p.health <= 0 {
		m.PlayMonsterSound(selfID, monsterSoundDeath)
	} else {
		m.PlayMonsterSound(selfID, monsterSoundPain)
	}
}

func (p *Player) Tick(_ *Map, _ EntityID, now time.Time, delta time.Duration) {
	dt := delta.Seconds()
	if p.health > 0 {
		p.speed[0] = p.intentX * playerMoveSpeed
		p.speed[1] = p.intentY * playerMoveSpeed
	} else {
		p.speed[0] = 0
		p.speed[1] = 0
	}
	p.integrate(dt)
	p.currentFrame = p.animationFrameAt(now)
}
