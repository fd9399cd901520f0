package main

import "github.com/go-gl/mathgl/mgl64"

// MapCellCount is the number of cells along each side of a map. Overlay
// fields, floor/ceiling texture grids, and the cell index are all
// MapCellCount x MapCellCount.
const MapCellCount = 64

// Floor/ceiling texture ids with special meaning: shots pass through them.
const (
	emptyFloorTextureID = 255
	skyFloorTextureID   = 254
)

// DifficultyFlags selects which monster placements spawn. Player placements
// reuse the field as a spawn-point number.
type DifficultyFlags uint8

const (
	DifficultyEasy DifficultyFlags = 1 << iota
	DifficultyNormal
	DifficultyHard
)

// EntityID is a process-unique handle for monsters, players, rockets, and
// mines. Counters are monotonic; monster and rocket ids come from separate
// sequences.
type EntityID uint16

// playerTypeID marks the player kind in monster placements and in
// Monster.TypeID.
const playerTypeID = 0

// ACode classifies the scripted behaviour of a model or item.
type ACode uint8

const (
	ACodeNone   ACode = 0
	ACodeSwitch ACode = 1

	ACodeRedKey   ACode = 2
	ACodeGreenKey ACode = 3
	ACodeBlueKey  ACode = 4

	ACodeWeaponFirst ACode = 10
	ACodeWeaponLast  ACode = 19
	ACodeAmmoFirst   ACode = 20
	ACodeAmmoLast    ACode = 29

	ACodeItemLife    ACode = 30
	ACodeItemBigLife ACode = 31
)

// WallSegment is a static or dynamic wall template: two endpoints in map
// units plus a texture id into MapData.WallTextures.
type WallSegment struct {
	Verts     [2]mgl64.Vec2
	TextureID int
}

// WallTexture carries the passage flags for one wall texture. The three
// gates are independent: a grate may block walking but not sight or shots.
type WallTexture struct {
	PassThrough  bool // ignored by movement collision
	SeeThrough   bool // ignored by line-of-sight checks
	ShootThrough bool // ignored by hit-scan and projectiles
}

// ModelPlacement positions one static model instance.
type ModelPlacement struct {
	Pos       mgl64.Vec2
	Angle     float64
	ModelID   int
	IsDynamic bool
}

// ModelDescription describes one model id's gameplay behaviour.
type ModelDescription struct {
	Radius     float64
	BreakLimit int // health when spawned or rebuilt after destruction
	AC         ACode
	BlowEffect int // 0 means indestructible
	BreakSound int
	BlowZShift float64
}

// ModelGeometry is the vertical extent and frame count of a model's mesh.
type ModelGeometry struct {
	ZMin       float64
	ZMax       float64
	FrameCount int
}

// ItemPlacement positions one pickup.
type ItemPlacement struct {
	Pos    mgl64.Vec2
	ItemID int
}

// MonsterPlacement seeds one monster (or player spawn point when MonsterID
// is playerTypeID).
type MonsterPlacement struct {
	Pos             mgl64.Vec2
	Angle           float64
	MonsterID       uint8
	DifficultyFlags DifficultyFlags
}

// Teleport moves a monster standing on the source cell to the destination.
// Destination components >= MapCellCount are fine coordinates scaled by 256.
type Teleport struct {
	From  [2]int
	To    [2]int
	Angle float64
}

// LinkKind identifies how a map cell is wired to a procedure.
type LinkKind uint8

const (
	LinkNone LinkKind = iota
	LinkFloor
	LinkReturnFloor
	LinkLink
	LinkReturn
	LinkShoot
	LinkDestroy
)

// Link wires the element indexed at cell (X, Y) to a procedure.
type Link struct {
	Kind   LinkKind
	X, Y   int
	ProcID int
}

// CommandKind tags one procedure action command. Unrecognized kinds are
// ignored so that untouched level data keeps loading.
type CommandKind uint8

const (
	CommandNone CommandKind = iota
	CommandLock
	CommandUnlock
	CommandPlayAnimation // not implemented; accepted as a no-op
	CommandStopAnimation // not implemented; accepted as a no-op
	CommandChange
	CommandWind
	CommandDeath
	CommandExplode
	CommandMove
	CommandXMove
	CommandYMove
	CommandRotate
	CommandUp
	CommandNonstop
)

// ActionCommand is one data-driven procedure operation.
type ActionCommand struct {
	Kind CommandKind
	Args [8]float64
}

// CellCoord addresses one map cell.
type CellCoord struct {
	X, Y int
}

// Procedure is the immutable script for one triggered animation.
type Procedure struct {
	StartDelayS float64
	EndDelayS   float64
	BackWaitS   float64
	Speed       float64

	Locked bool

	RedKeyRequired   bool
	GreenKeyRequired bool
	BlueKeyRequired  bool

	FirstMessage int
	LockMessage  int
	OnMessage    int

	LinkedSwitches []CellCoord
	Commands       []ActionCommand
}

// ElementKind identifies what a cell-index entry points at.
type ElementKind uint8

const (
	ElementNone ElementKind = iota
	ElementStaticWall
	ElementDynamicWall
	ElementStaticModel
	ElementItem
)

// IndexElement is one cell-index entry: a back-reference into the map's
// static arrays, never ownership.
type IndexElement struct {
	Kind  ElementKind
	Index int
}

// MapData is the immutable level definition. It is supplied once at map
// construction and never mutated by the simulation.
type MapData struct {
	StaticWalls  []WallSegment
	DynamicWalls []WallSegment
	WallTextures []WallTexture

	StaticModels      []ModelPlacement
	ModelsDescription []ModelDescription
	Models            []ModelGeometry

	Items     []ItemPlacement
	Monsters  []MonsterPlacement
	Teleports []Teleport

	Procedures []Procedure
	Links      []Link

	FloorTextures   []uint8
	CeilingTextures []uint8

	// Index maps each cell to the element occupying it.
	Index []IndexElement
}

// cellIndex converts 2D cell coordinates to the flattened index used by the
// overlay fields and the cell index, rejecting out-of-range coordinates.
func cellIndex(x, y int) (int, bool) {
	if x < 0 || x >= MapCellCount || y < 0 || y >= MapCellCount {
		return 0, false
	}
	return x + y*MapCellCount, true
}

// IndexAt returns the cell-index entry at (x, y).
func (d *MapData) IndexAt(x, y int) IndexElement {
	idx, ok := cellIndex(x, y)
	if !ok || idx >= len(d.Index) {
		return IndexElement{Kind: ElementNone}
	}
	return d.Index[idx]
}

// RocketDescription describes one rocket type. A rocket with an empty model
// file name has no travel model: it resolves as a single hit-scan in the
// tick it is fired.
type RocketDescription struct {
	ModelFileName string
	Fast          bool
	GravityForce  float64
	Reflect       bool // bounces off the floor plane
	Homing        bool
	Power         int
	BlowEffect    int
	SmokeTrailID  uint8
}

// InstantHit reports whether the rocket type resolves without a travel
// model.
func (d *RocketDescription) InstantHit() bool {
	return d.ModelFileName == ""
}

// MonsterDescription describes one monster type.
type MonsterDescription struct {
	Radius float64
	Life   int
}

// ItemDescription describes one item type.
type ItemDescription struct {
	ACode ACode
}

// GameResources bundles the immutable description tables looked up by id.
type GameResources struct {
	RocketsDescription  []RocketDescription
	MonstersDescription []MonsterDescription
	ItemsDescription    []ItemDescription
}
