package main

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/messages"
)

var testStart = time.Unix(1700000000, 0)

// newTestMapData builds an empty level: solid floor and ceiling everywhere,
// texture 0 solid, texture 1 fully transparent.
func newTestMapData() *MapData {
	data := &MapData{
		WallTextures: []WallTexture{
			{},
			{PassThrough: true, SeeThrough: true, ShootThrough: true},
		},
		FloorTextures:   make([]uint8, MapCellCount*MapCellCount),
		CeilingTextures: make([]uint8, MapCellCount*MapCellCount),
		Index:           make([]IndexElement, MapCellCount*MapCellCount),
	}
	for i := range data.FloorTextures {
		data.FloorTextures[i] = 1
		data.CeilingTextures[i] = 1
	}
	return data
}

func newTestResources() *GameResources {
	return &GameResources{
		RocketsDescription: []RocketDescription{
			{Power: 10, BlowEffect: 1}, // instant hit-scan
			{ModelFileName: "rocket", Fast: true, Power: 40, BlowEffect: 3, SmokeTrailID: 4},
			{ModelFileName: "grenade", GravityForce: 9.8, Reflect: true, Power: 30, BlowEffect: 3},
			{ModelFileName: "seeker", Homing: true, Power: 25, BlowEffect: 3},
		},
		MonstersDescription: []MonsterDescription{
			{Radius: playerRadius, Life: playerMaxHealth},
			{Radius: 0.5, Life: 60},
		},
		ItemsDescription: []ItemDescription{
			{},
			{ACode: ACodeItemLife},
			{ACode: ACodeWeaponFirst},
		},
	}
}

func newTestMap(data *MapData, resources *GameResources) *Map {
	return NewMap(DifficultyNormal, data, resources, nil, testStart, WithRandomSeed(1))
}

// addTestWall appends a static wall segment and registers it in the cell
// index at the first endpoint's cell.
func addTestWall(data *MapData, x0, y0, x1, y1 float64, texture int) int {
	index := len(data.StaticWalls)
	data.StaticWalls = append(data.StaticWalls, WallSegment{
		Verts:     [2]mgl64.Vec2{{x0, y0}, {x1, y1}},
		TextureID: texture,
	})
	if idx, ok := cellIndex(int(x0), int(y0)); ok {
		data.Index[idx] = IndexElement{Kind: ElementStaticWall, Index: index}
	}
	return index
}

// spawnTestPlayer joins a player and pins it to a position.
func spawnTestPlayer(m *Map, pos mgl64.Vec3) (EntityID, *Player) {
	player := NewPlayer()
	id := m.SpawnPlayer(player)
	player.Teleport(pos, 0)
	return id, player
}

type collectingSender struct {
	reliable   []messages.Message
	unreliable []messages.Message
}

func (s *collectingSender) SendReliable(msg messages.Message) {
	s.reliable = append(s.reliable, msg)
}

func (s *collectingSender) SendUnreliable(msg messages.Message) {
	s.unreliable = append(s.unreliable, msg)
}

func (s *collectingSender) countType(name string) int {
	count := 0
	for _, msg := range s.unreliable {
		if msg.Type() == name {
			count++
		}
	}
	return count
}
