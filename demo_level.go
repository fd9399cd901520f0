package main

import "github.com/go-gl/mathgl/mgl64"

// buildDemoLevel assembles a small built-in arena: a walled yard with a
// scripted door, a switch that drives it, a key, a few pickups, and one
// roaming monster. It stands in for externally authored level data.
func buildDemoLevel() (*MapData, *GameResources) {
	data := &MapData{
		WallTextures: []WallTexture{
			{},                                     // 0: solid
			{SeeThrough: true, ShootThrough: true}, // 1: grate
			{},                                     // 2: door panel
		},
		FloorTextures:   make([]uint8, MapCellCount*MapCellCount),
		CeilingTextures: make([]uint8, MapCellCount*MapCellCount),
		Index:           make([]IndexElement, MapCellCount*MapCellCount),
	}
	for i := range data.FloorTextures {
		data.FloorTextures[i] = 1
		data.CeilingTextures[i] = 1
	}

	addStaticWall := func(x0, y0, x1, y1 float64, texture int) {
		index := len(data.StaticWalls)
		data.StaticWalls = append(data.StaticWalls, WallSegment{
			Verts:     [2]mgl64.Vec2{{x0, y0}, {x1, y1}},
			TextureID: texture,
		})
		if idx, ok := cellIndex(int(x0), int(y0)); ok {
			data.Index[idx] = IndexElement{Kind: ElementStaticWall, Index: index}
		}
	}

	// Yard border: a 16x16 box.
	addStaticWall(4, 4, 20, 4, 0)
	addStaticWall(20, 4, 20, 20, 0)
	addStaticWall(20, 20, 4, 20, 0)
	addStaticWall(4, 20, 4, 12, 0)
	addStaticWall(4, 10, 4, 4, 0)

	// Door closing the gap in the west wall, slid aside by procedure 1.
	data.DynamicWalls = append(data.DynamicWalls, WallSegment{
		Verts:     [2]mgl64.Vec2{{4, 10}, {4, 12}},
		TextureID: 2,
	})
	if idx, ok := cellIndex(4, 10); ok {
		data.Index[idx] = IndexElement{Kind: ElementDynamicWall, Index: 0}
	}

	data.ModelsDescription = []ModelDescription{
		{},                             // 0: unused
		{Radius: 0.5, AC: ACodeSwitch}, // 1: switch lever
		{Radius: 0.3, AC: ACodeRedKey}, // 2: red key stand
		{Radius: 0.6, BreakLimit: 40, BlowEffect: 1, BreakSound: 12}, // 3: barrel
		{Radius: 0.6}, // 4: broken barrel
	}
	data.Models = []ModelGeometry{
		{},
		{ZMin: 0, ZMax: 1.0, FrameCount: 8},
		{ZMin: 0, ZMax: 0.5, FrameCount: 1},
		{ZMin: 0, ZMax: 0.9, FrameCount: 1},
		{ZMin: 0, ZMax: 0.4, FrameCount: 1},
	}

	addModel := func(x, y float64, modelID int) int {
		index := len(data.StaticModels)
		data.StaticModels = append(data.StaticModels, ModelPlacement{
			Pos:     mgl64.Vec2{x, y},
			ModelID: modelID,
		})
		if idx, ok := cellIndex(int(x), int(y)); ok {
			data.Index[idx] = IndexElement{Kind: ElementStaticModel, Index: index}
		}
		return index
	}

	addModel(18.5, 6.5, 1)  // switch lever driving the door
	addModel(18.5, 18.5, 2) // red key
	addModel(10.5, 10.5, 3) // barrel wired to the unlock trigger

	data.Items = []ItemPlacement{
		{Pos: mgl64.Vec2{6.5, 6.5}, ItemID: 1},
		{Pos: mgl64.Vec2{6.5, 18.5}, ItemID: 2},
	}
	for i := range data.Items {
		if idx, ok := cellIndex(int(data.Items[i].Pos.X()), int(data.Items[i].Pos.Y())); ok {
			data.Index[idx] = IndexElement{Kind: ElementItem, Index: i}
		}
	}

	data.Monsters = []MonsterPlacement{
		{Pos: mgl64.Vec2{12.5, 6.5}, MonsterID: playerTypeID, DifficultyFlags: 0},
		{Pos: mgl64.Vec2{12.5, 16.5}, Angle: 0, MonsterID: 1,
			DifficultyFlags: DifficultyEasy | DifficultyNormal | DifficultyHard},
	}

	data.Teleports = []Teleport{
		{From: [2]int{8, 8}, To: [2]int{16, 16}, Angle: 0},
	}

	// Procedure 1 slides the door north; procedure 2 is a destroy trigger
	// bound to the barrel.
	data.Procedures = []Procedure{
		{}, // procedure 0 is never used
		{
			StartDelayS:    0.25,
			BackWaitS:      4,
			Speed:          8,
			RedKeyRequired: true,
			FirstMessage:   1,
			LockMessage:    2,
			LinkedSwitches: []CellCoord{{X: 18, Y: 6}},
			Commands: []ActionCommand{
				{Kind: CommandMove, Args: [8]float64{0, 2 * 256}},
			},
		},
		{
			Speed:  16,
			Locked: true,
			Commands: []ActionCommand{
				{Kind: CommandUnlock, Args: [8]float64{1}},
			},
		},
	}

	data.Links = []Link{
		{Kind: LinkLink, X: 18, Y: 6, ProcID: 1},
		{Kind: LinkFloor, X: 5, Y: 10, ProcID: 1},
		{Kind: LinkDestroy, X: 10, Y: 10, ProcID: 2},
	}

	resources := &GameResources{
		RocketsDescription: []RocketDescription{
			{BlowEffect: 1, Power: 8}, // 0: pistol shot
			{ModelFileName: "rocket", Fast: true, Power: 40, BlowEffect: 3, SmokeTrailID: 4}, // 1: rocket
			{ModelFileName: "grenade", GravityForce: 9.8, Reflect: true, Power: 30, BlowEffect: 3},
			{ModelFileName: "seeker", Homing: true, Power: 25, BlowEffect: 3, SmokeTrailID: 4},
		},
		MonstersDescription: []MonsterDescription{
			{Radius: playerRadius, Life: playerMaxHealth}, // 0: player kind
			{Radius: 0.5, Life: 60},
		},
		ItemsDescription: []ItemDescription{
			{},
			{ACode: ACodeItemLife},
			{ACode: ACodeWeaponFirst},
		},
	}

	return data, resources
}
