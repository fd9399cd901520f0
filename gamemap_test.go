package main

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/logging"
)

func TestSpawnPlayerUsesLowestSpawnOrdinal(t *testing.T) {
	data := newTestMapData()
	data.Monsters = []MonsterPlacement{
		{Pos: mgl64.Vec2{40, 40}, MonsterID: playerTypeID, DifficultyFlags: 2},
		{Pos: mgl64.Vec2{20, 20}, MonsterID: playerTypeID, DifficultyFlags: 1},
	}
	m := newTestMap(data, newTestResources())

	player := NewPlayer()
	m.SpawnPlayer(player)
	if pos := player.Position(); pos.X() != 20 || pos.Y() != 20 {
		t.Fatalf("spawn must use the lowest ordinal placement, got %v", pos)
	}
}

func TestSpawnPlayerWithoutPlacementsLandsAtCenter(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	player := NewPlayer()
	m.SpawnPlayer(player)
	center := float64(MapCellCount) / 2
	if pos := player.Position(); pos.X() != center || pos.Y() != center {
		t.Fatalf("fallback spawn must be the map center, got %v", pos)
	}
}

func TestGetFloorLevelStacksOnLowModels(t *testing.T) {
	data := newTestMapData()
	data.ModelsDescription = []ModelDescription{
		{Radius: 0.6},                  // 0: crate, walkable top
		{Radius: 0.6},                  // 1: tall block, too high to stand on
		{Radius: 0.6, AC: ACodeSwitch}, // 2: scripted, never a floor
	}
	data.Models = []ModelGeometry{
		{ZMax: 0.8, FrameCount: 1},
		{ZMax: 1.6, FrameCount: 1},
		{ZMax: 0.5, FrameCount: 1},
	}
	addTestModel(data, 10, 10, 0)
	addTestModel(data, 20, 20, 1)
	addTestModel(data, 30, 30, 2)
	m := newTestMap(data, newTestResources())

	if floor := m.GetFloorLevel(mgl64.Vec2{10, 10}, playerRadius); floor != 0.8 {
		t.Fatalf("crate top must be the floor, got %f", floor)
	}
	if floor := m.GetFloorLevel(mgl64.Vec2{20, 20}, playerRadius); floor != 0 {
		t.Fatalf("surfaces above the walkable ceiling are not floors, got %f", floor)
	}
	if floor := m.GetFloorLevel(mgl64.Vec2{30, 30}, playerRadius); floor != 0 {
		t.Fatalf("scripted models never raise the floor, got %f", floor)
	}
	if floor := m.GetFloorLevel(mgl64.Vec2{50, 50}, playerRadius); floor != 0 {
		t.Fatalf("open ground must be at 0, got %f", floor)
	}
}

func TestShootUnknownRocketTypeReportsError(t *testing.T) {
	recorder := logging.NewMemoryPublisher()
	m := NewMap(DifficultyNormal, newTestMapData(), newTestResources(), nil, testStart,
		WithRandomSeed(1), WithPublisher(recorder))

	m.Shoot(0, 200, mgl64.Vec3{10, 10, 1}, mgl64.Vec3{1, 0, 0}, testStart)
	if len(m.rockets) != 0 {
		t.Fatalf("unknown rocket type must not spawn a rocket")
	}

	sawError := false
	for _, event := range recorder.Events() {
		if event.Type == logging.EventSimulationError {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("unknown rocket type must publish a simulation error")
	}
}

func TestMapEndPublishedOnce(t *testing.T) {
	recorder := logging.NewMemoryPublisher()
	data := newDoorMapData(0)
	data.Procedures[1].EndDelayS = 0.2
	m := NewMap(DifficultyNormal, data, newTestResources(), nil, testStart,
		WithRandomSeed(1), WithPublisher(recorder))

	m.ActivateProcedure(1, testStart)
	now := testStart
	for i := 0; i < tickRate*3; i++ {
		now = now.Add(tickDelta)
		m.Tick(now, tickDelta)
	}

	ends := 0
	for _, event := range recorder.Events() {
		if event.Type == logging.EventMapEnd {
			ends++
		}
	}
	if ends != 1 {
		t.Fatalf("map end must be published exactly once, got %d", ends)
	}
}

func TestRemovePlayerLeavesNoMonster(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	id, _ := spawnTestPlayer(m, mgl64.Vec3{10, 10, 0})

	m.RemovePlayer(id)
	if _, ok := m.players[id]; ok {
		t.Fatalf("removed player still in the player set")
	}
	if _, ok := m.monsters[id]; ok {
		t.Fatalf("removed player still in the monster set")
	}

	// Removal is idempotent.
	m.RemovePlayer(id)
}

func TestFindNearestPlayerIgnoresDead(t *testing.T) {
	m := newTestMap(newTestMapData(), newTestResources())
	nearID, near := spawnTestPlayer(m, mgl64.Vec3{10, 10, 0})
	spawnTestPlayer(m, mgl64.Vec3{30, 30, 0})

	pos, ok := m.FindNearestPlayerPos(mgl64.Vec3{8, 8, 0})
	if !ok || pos.X() != 10 {
		t.Fatalf("nearest live player must win, got %v ok=%v", pos, ok)
	}

	near.Hit(999, m, nearID, time.Now())
	pos, ok = m.FindNearestPlayerPos(mgl64.Vec3{8, 8, 0})
	if !ok || pos.X() != 30 {
		t.Fatalf("dead players must be skipped, got %v ok=%v", pos, ok)
	}
}

func TestDeterministicSeedStreamsAreStable(t *testing.T) {
	a := newDeterministicRNG(7, "map")
	b := newDeterministicRNG(7, "map")
	other := newDeterministicRNG(7, "monster")

	if a.Int63() != b.Int63() {
		t.Fatalf("same seed and label must yield the same stream")
	}
	if newDeterministicRNG(7, "map").Int63() == other.Int63() {
		t.Fatalf("different labels must yield different streams")
	}
}
