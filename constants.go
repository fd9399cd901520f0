package main

import "time"

const (
	ProtocolVersion = 1
	writeWait       = 10 * time.Second
	tickRate        = 15 // ticks per second

	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval
)

// World geometry. Map cells are 1x1 units; wall and ceiling heights are in
// the same units.
const (
	wallsHeight  = 2.0
	playerHeight = 1.0
	playerRadius = 0.4

	playerInteractRadius = 0.5
	playerZPullDistance  = 0.5

	maxFloorLevel = 1.2
)

// Simulation tuning.
const (
	rocketsSpeed        = 10.0
	fastRocketsSpeed    = 20.0
	rocketsGravityScale = 1.0
	rocketMaxAgeSeconds = 16.0
	homingRotSpeed      = 1.5707963267948966 // pi/2 rad per second

	trailParticlesPerUnit = 2.0
	wallHitEffectOffset   = 1.0 / 32.0
	sweepLengthEps        = 1.0 / 64.0

	minePreparationSeconds = 2.0
	mineMaxAgeSeconds      = 30.0
	mineActivationRadius   = 1.0
	mineBroadPhaseRadius   = 8.0
	minePlantRadius        = 0.2
	mineItemTypeID         = 38

	monsterCollideBroadPhase = 8.0

	proceduresSpeedScale = 1.0 / 16.0
	commandsCoordsScale  = 1.0 / 256.0

	animationsFramesPerSecond = 16.0
	deathTicksPerSecond       = 5.0

	windPowerScale   = 0.5
	teleportRadius   = 0.4
	deathFieldZScale = 64.0
)

// changeCommandModelIDBase offsets the raw "change" command argument into the
// model description table.
const changeCommandModelIDBase = 163
