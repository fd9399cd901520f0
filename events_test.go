package main

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewObserverGetsReliableMonsterBirths(t *testing.T) {
	data := newTestMapData()
	data.Monsters = []MonsterPlacement{
		{Pos: mgl64.Vec2{5, 5}, MonsterID: 1, DifficultyFlags: DifficultyNormal},
		{Pos: mgl64.Vec2{7, 7}, MonsterID: 1, DifficultyFlags: DifficultyNormal},
	}
	m := newTestMap(data, newTestResources())
	spawnTestPlayer(m, mgl64.Vec3{10, 10, 0})

	sender := &collectingSender{}
	m.SendMessagesForNewlyConnectedPlayer(sender)

	births := 0
	for _, msg := range sender.reliable {
		if msg.Type() == "monster_birth" {
			births++
		}
	}
	if births != 3 {
		t.Fatalf("new observer must get a reliable birth per monster and player, got %d", births)
	}
	if len(sender.unreliable) != 0 {
		t.Fatalf("the connect dump is reliable only, got %d unreliable", len(sender.unreliable))
	}
}

func TestDifficultyFiltersMonsterPlacements(t *testing.T) {
	data := newTestMapData()
	data.Monsters = []MonsterPlacement{
		{Pos: mgl64.Vec2{5, 5}, MonsterID: 1, DifficultyFlags: DifficultyNormal},
		{Pos: mgl64.Vec2{7, 7}, MonsterID: 1, DifficultyFlags: DifficultyHard},
		{Pos: mgl64.Vec2{9, 9}, MonsterID: 1, DifficultyFlags: DifficultyEasy | DifficultyNormal},
	}
	m := newTestMap(data, newTestResources())
	if len(m.monsters) != 2 {
		t.Fatalf("normal difficulty must spawn 2 of the 3 placements, got %d", len(m.monsters))
	}
}

func TestUpdateMessagesRegenerateAbsoluteState(t *testing.T) {
	data := newDoorMapData(0)
	m := newTestMap(data, newTestResources())
	spawnTestPlayer(m, mgl64.Vec3{10, 10, 0})

	first := &collectingSender{}
	m.SendUpdateMessages(first)
	if first.countType("wall_position") != 1 {
		t.Fatalf("every update carries the dynamic wall, got %d", first.countType("wall_position"))
	}
	if first.countType("monster_state") != 1 {
		t.Fatalf("every update carries each monster, got %d", first.countType("monster_state"))
	}

	// Absolute state survives the transient drain.
	m.ClearUpdateEvents()
	second := &collectingSender{}
	m.SendUpdateMessages(second)
	if second.countType("wall_position") != 1 || second.countType("monster_state") != 1 {
		t.Fatalf("absolute state must regenerate after a drain")
	}
}

func TestClearUpdateEventsDropsTransientsOnly(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	spawnTestPlayer(m, mgl64.Vec3{10, 10, 0})

	m.AddParticleEffect(mgl64.Vec3{1, 1, 0}, ParticleEffectSparkles)
	m.PlayMapEventSound(mgl64.Vec3{1, 1, 0}, soundExplosion)
	m.addTextMessage(7)

	first := &collectingSender{}
	m.SendUpdateMessages(first)
	if first.countType("particle_effect_birth") != 1 ||
		first.countType("map_event_sound") != 1 ||
		first.countType("text_message") != 1 {
		t.Fatalf("queued transients must go out with the next update")
	}

	m.ClearUpdateEvents()
	second := &collectingSender{}
	m.SendUpdateMessages(second)
	if second.countType("particle_effect_birth") != 0 ||
		second.countType("map_event_sound") != 0 ||
		second.countType("text_message") != 0 {
		t.Fatalf("drained transients must not repeat")
	}
	if second.countType("monster_state") != 1 {
		t.Fatalf("drain must not touch absolute state")
	}
}

func TestRocketStateOnlyWhileInFlight(t *testing.T) {
	data := newTestMapData()
	for i := range data.CeilingTextures {
		data.CeilingTextures[i] = skyFloorTextureID
	}
	m := newTestMap(data, newTestResources())

	m.Shoot(0, 1, mgl64.Vec3{10, 10, 1}, mgl64.Vec3{0, 0, 1}, testStart)
	m.processRockets(testStart.Add(tickDelta), tickDelta)

	flight := &collectingSender{}
	m.SendUpdateMessages(flight)
	if flight.countType("rocket_state") != 1 {
		t.Fatalf("airborne rocket must report its state, got %d", flight.countType("rocket_state"))
	}

	// Let it age out, then confirm the state updates stop.
	m.ClearUpdateEvents()
	late := testStart.Add(17 * time.Second)
	m.processRockets(late, tickDelta)
	after := &collectingSender{}
	m.SendUpdateMessages(after)
	if after.countType("rocket_state") != 0 {
		t.Fatalf("removed rocket must stop reporting state")
	}
	if after.countType("rocket_death") != 1 {
		t.Fatalf("removed rocket must announce its death once")
	}
}
