package main

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const tickDelta = time.Second / tickRate

func TestInstantHitRocketResolvesSameTick(t *testing.T) {
	data := newTestMapData()
	addTestWall(data, 12, 8, 12, 12, 0)
	m := newTestMap(data, newTestResources())

	m.Shoot(0, 0, mgl64.Vec3{2, 10, 1}, mgl64.Vec3{1, 0, 0}, testStart)
	if len(m.events.rocketBirths) != 0 {
		t.Fatalf("instant-hit rocket must not announce a birth")
	}

	m.processRockets(testStart.Add(tickDelta), tickDelta)
	if len(m.rockets) != 0 {
		t.Fatalf("instant-hit rocket must be gone after one tick, %d left", len(m.rockets))
	}
	if len(m.events.rocketDeaths) != 0 {
		t.Fatalf("instant-hit rocket must not announce a death")
	}
	if len(m.events.particleEffects) != 1 {
		t.Fatalf("wall hit must queue exactly one impact effect, got %d", len(m.events.particleEffects))
	}
}

func TestTravelingRocketHitsWallOnce(t *testing.T) {
	data := newTestMapData()
	wall := addTestWall(data, 12, 8, 12, 12, 0)
	data.Links = []Link{{Kind: LinkShoot, X: 12, Y: 8, ProcID: 1}}
	data.Procedures = []Procedure{
		{},
		{Speed: 16, Commands: []ActionCommand{{Kind: CommandMove, Args: [8]float64{256, 0}}}},
	}
	if idx, ok := cellIndex(12, 8); ok {
		data.Index[idx] = IndexElement{Kind: ElementStaticWall, Index: wall}
	}
	m := newTestMap(data, newTestResources())

	// Fast rocket half a unit from the wall covers the gap well inside one
	// tick.
	m.Shoot(0, 1, mgl64.Vec3{11.5, 10, 1}, mgl64.Vec3{1, 0, 0}, testStart)
	if len(m.events.rocketBirths) != 1 {
		t.Fatalf("traveling rocket must announce its birth, got %d", len(m.events.rocketBirths))
	}

	m.processRockets(testStart.Add(tickDelta), tickDelta)
	if len(m.rockets) != 0 {
		t.Fatalf("rocket must die on the wall, %d left", len(m.rockets))
	}
	if len(m.events.rocketDeaths) != 1 {
		t.Fatalf("wall death must be announced once, got %d", len(m.events.rocketDeaths))
	}
	if m.procedures[1].state != MovementStartWait {
		t.Fatalf("shoot link on the struck wall must fire its procedure")
	}
	if len(m.events.particleEffects) != 1 {
		t.Fatalf("one impact, one effect, got %d", len(m.events.particleEffects))
	}
}

func TestReflectingRocketBouncesOffFloor(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())

	down := mgl64.Vec3{0, 0, -1}
	m.Shoot(0, 2, mgl64.Vec3{10, 10, 0.5}, down, testStart)

	m.processRockets(testStart.Add(tickDelta), tickDelta)
	if len(m.rockets) != 1 {
		t.Fatalf("reflecting rocket must survive the floor, %d left", len(m.rockets))
	}
	if vz := m.rockets[0].speed.Z(); vz <= 0 {
		t.Fatalf("bounce must leave the rocket moving up, vz=%f", vz)
	}
	if z := m.rockets[0].previousPosition.Z(); z < 0 {
		t.Fatalf("bounced rocket below the floor at z=%f", z)
	}
	if len(m.events.rocketDeaths) != 0 {
		t.Fatalf("bounce must not announce a death")
	}
}

func TestRocketExpiresAtMaxAge(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	m.Shoot(0, 1, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 0, 1}, testStart)

	// Aim straight up into sky cells so the rocket never hits anything.
	for i := range m.data.CeilingTextures {
		m.data.CeilingTextures[i] = skyFloorTextureID
	}

	now := testStart
	for i := 0; i < tickRate*17 && len(m.rockets) > 0; i++ {
		now = now.Add(tickDelta)
		m.processRockets(now, tickDelta)
	}
	if len(m.rockets) != 0 {
		t.Fatalf("rocket older than the age limit must be removed")
	}
	if len(m.events.rocketDeaths) != 1 {
		t.Fatalf("aged-out rocket must announce one death, got %d", len(m.events.rocketDeaths))
	}
}

func TestRocketTrailDensity(t *testing.T) {
	data := newTestMapData()
	for i := range data.CeilingTextures {
		data.CeilingTextures[i] = skyFloorTextureID
	}
	m := newTestMap(data, newTestResources())

	// Fast rocket with a smoke trail, flying level: 20 units over one
	// second at 2 particles per unit.
	m.Shoot(0, 1, mgl64.Vec3{1, 32, 1}, mgl64.Vec3{1, 0, 0}, testStart)

	now := testStart
	for i := 0; i < tickRate; i++ {
		now = now.Add(tickDelta)
		m.processRockets(now, tickDelta)
	}

	distance := now.Sub(testStart).Seconds() * fastRocketsSpeed
	want := int(distance * trailParticlesPerUnit)
	got := len(m.events.spriteEffects)
	if got < want-1 || got > want+1 {
		t.Fatalf("trail emitted %d particles over %f units, want about %d", got, distance, want)
	}
}

func TestHomingRocketTurnsTowardPlayer(t *testing.T) {
	data := newTestMapData()
	data.Monsters = []MonsterPlacement{{Pos: mgl64.Vec2{10, 20}, MonsterID: playerTypeID}}
	m := newTestMap(data, newTestResources())
	spawnTestPlayer(m, mgl64.Vec3{10, 20, 0})

	// Fired past the player, heading along +x.
	m.Shoot(0, 3, mgl64.Vec3{2, 10, 0.5}, mgl64.Vec3{1, 0, 0}, testStart)

	m.processRockets(testStart.Add(tickDelta), tickDelta)
	if len(m.rockets) != 1 {
		t.Fatalf("homing rocket vanished")
	}
	dir := m.rockets[0].direction
	if dir.Y() <= 0 {
		t.Fatalf("homing rocket must turn toward the player at +y, dir %v", dir)
	}
	if math.Abs(dir.Len()-1) > 1e-9 {
		t.Fatalf("homing direction must stay normalized, |dir|=%f", dir.Len())
	}

	maxTurn := homingRotSpeed * tickDelta.Seconds()
	turned := math.Acos(clamp(dir.Dot(mgl64.Vec3{1, 0, 0}), -1, 1))
	if turned > maxTurn+1e-9 {
		t.Fatalf("turn of %f rad exceeds the per-tick limit %f", turned, maxTurn)
	}
}

func TestRocketDamagesAndDestroysModel(t *testing.T) {
	data := newTestMapData()
	data.ModelsDescription = []ModelDescription{
		{Radius: 0.5, BreakLimit: 60, BlowEffect: 2, BreakSound: 12},
		{Radius: 0.5},
	}
	data.Models = []ModelGeometry{{ZMax: 1, FrameCount: 1}, {ZMax: 0.2, FrameCount: 1}}
	barrel := addTestModel(data, 12, 10, 0)
	m := newTestMap(data, newTestResources())

	// Two 40-power rockets break a 60-health model.
	for i := 0; i < 2; i++ {
		m.Shoot(0, 1, mgl64.Vec3{11, 10, 0.5}, mgl64.Vec3{1, 0, 0}, testStart)
		m.processRockets(testStart.Add(tickDelta), tickDelta)
	}

	model := &m.staticModels[barrel]
	if model.modelID != 1 {
		t.Fatalf("broken model must advance to its next variant, id %d", model.modelID)
	}
}

func TestRocketHitsMonsterAndDrawsBlood(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	id, npc := addTestNPC(m, 1, mgl64.Vec3{12, 10, 0})
	healthBefore := npc.Health()

	m.Shoot(0, 1, mgl64.Vec3{11, 10, 0.5}, mgl64.Vec3{1, 0, 0}, testStart)
	m.processRockets(testStart.Add(tickDelta), tickDelta)

	if npc.Health() >= healthBefore {
		t.Fatalf("struck monster must lose health, %d -> %d", healthBefore, npc.Health())
	}
	blood := 0
	for _, effect := range m.events.particleEffects {
		if ParticleEffect(effect.EffectID) == ParticleEffectBlood {
			blood++
		}
	}
	if blood != 1 {
		t.Fatalf("monster hit must draw blood once, got %d", blood)
	}
	if len(m.events.monsterSounds) != 1 || m.events.monsterSounds[0].MonsterID != uint16(id) {
		t.Fatalf("wounded monster must voice pain")
	}
}

func TestMineArmsThenDetonatesOnce(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	addTestNPC(m, 1, mgl64.Vec3{10.5, 10, 0})

	m.PlantMine(0, mgl64.Vec3{10, 10, 0}, testStart)
	if len(m.events.dynamicItemBirths) != 1 {
		t.Fatalf("planted mine must announce a dynamic item birth")
	}

	// Inert during the preparation window even with a monster on top.
	m.processMines(testStart.Add(time.Second))
	if len(m.mines) != 1 {
		t.Fatalf("mine detonated during its preparation window")
	}
	if len(m.events.mapSounds) != 0 {
		t.Fatalf("silent while preparing, got %d sounds", len(m.events.mapSounds))
	}

	m.processMines(testStart.Add(2100 * time.Millisecond))
	if len(m.mines) != 0 {
		t.Fatalf("armed mine next to a monster must detonate")
	}
	if len(m.events.dynamicItemDeaths) != 1 {
		t.Fatalf("detonation must announce one dynamic item death, got %d", len(m.events.dynamicItemDeaths))
	}
	explosions := 0
	for _, effect := range m.events.particleEffects {
		if ParticleEffect(effect.EffectID) == ParticleEffectExplosion {
			explosions++
		}
	}
	if explosions != 1 {
		t.Fatalf("detonation must queue one explosion, got %d", explosions)
	}
}

func TestMineArmingSoundPlaysOnce(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	m.PlantMine(0, mgl64.Vec3{10, 10, 0}, testStart)

	m.processMines(testStart.Add(2100 * time.Millisecond))
	m.processMines(testStart.Add(2200 * time.Millisecond))

	armed := 0
	for _, sound := range m.events.mapSounds {
		if sound.SoundID == soundMineOn {
			armed++
		}
	}
	if armed != 1 {
		t.Fatalf("arming sound must play exactly once, got %d", armed)
	}
	if len(m.mines) != 1 {
		t.Fatalf("armed mine with nobody near must stay planted")
	}
}

func TestMineExpiresAtMaxAge(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	m.PlantMine(0, mgl64.Vec3{10, 10, 0}, testStart)

	m.processMines(testStart.Add(31 * time.Second))
	if len(m.mines) != 0 {
		t.Fatalf("mine past its lifetime must be removed")
	}
	if len(m.events.dynamicItemDeaths) != 1 {
		t.Fatalf("expired mine must announce one dynamic item death")
	}
}
