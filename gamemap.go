package main

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/logging"
	"stonefall/server/messages"
)

// AnimationState controls how a static model advances its frames.
type AnimationState uint8

const (
	AnimationLoop AnimationState = iota
	AnimationSingle
	AnimationSingleReverse
	AnimationSingleFrame
)

// objectTransform accumulates the horizontal matrix and vertical offset a
// model or wall receives from procedure commands during one tick.
type objectTransform struct {
	mat mgl64.Mat3
	dZ  float64
}

func (t *objectTransform) clear() {
	t.mat = mgl64.Ident3()
	t.dZ = 0
}

func (t *objectTransform) accumulate(step mgl64.Mat3) {
	t.mat = step.Mul3(t.mat)
}

func (t *objectTransform) apply(p mgl64.Vec2) mgl64.Vec2 {
	v := t.mat.Mul3x1(mgl64.Vec3{p.X(), p.Y(), 1})
	return mgl64.Vec2{v.X(), v.Y()}
}

// DynamicWall is a wall segment owned by a procedure. Its vertices are
// recomputed from the template every tick.
type DynamicWall struct {
	verts     [2]mgl64.Vec2
	z         float64
	textureID int
	transform objectTransform
}

// StaticModel is a placed map model with health, animation, and an optional
// per-tick transform.
type StaticModel struct {
	pos     mgl64.Vec3
	baseZ   float64
	angle   float64
	modelID int
	health  int

	animationState      AnimationState
	animationStartTime  time.Time
	animationStartFrame int
	currentFrame        int

	transform      objectTransform
	transformAngle float64

	picked bool
}

// Item is a placed pickup.
type Item struct {
	pos    mgl64.Vec3
	itemID int
	picked bool
}

// MovementState is a procedure's position in its activation cycle.
type MovementState uint8

const (
	MovementNone MovementState = iota
	MovementStartWait
	MovementInProgress
	MovementBackWait
	MovementReverse
)

// ProcedureState is the runtime side of a Procedure definition.
type ProcedureState struct {
	state           MovementState
	stage           float64
	lastStateChange time.Time
	locked          bool
	firstMessageOut bool
}

// Rocket is a projectile in flight. previousPosition is where it was at the
// end of the last tick and anchors the swept collision probe.
type Rocket struct {
	id        EntityID
	ownerID   EntityID
	typeID    uint8
	startTime time.Time

	startPoint mgl64.Vec3
	direction  mgl64.Vec3
	speed      mgl64.Vec3

	previousPosition mgl64.Vec3
	trackLength      float64
}

// Mine is a planted proximity charge.
type Mine struct {
	id        EntityID
	pos       mgl64.Vec3
	plantTime time.Time
	turnedOn  bool
}

type windCell [2]int8

type damageFieldCell struct {
	damage  uint8
	zBottom uint8
	zTop    uint8
}

// MapEndCallback fires once when a procedure signals level completion.
type MapEndCallback func()

// Map is the authoritative simulation of one level. It is not safe for
// concurrent use; the hub drives it from a single goroutine.
type Map struct {
	difficulty  DifficultyFlags
	data        *MapData
	resources   *GameResources
	endCallback MapEndCallback
	publisher   logging.Publisher

	rng       *rand.Rand
	startTime time.Time
	tick      uint64

	index *collisionIndex

	procedures   []ProcedureState
	dynamicWalls []DynamicWall
	staticModels []StaticModel
	items        []Item

	monsters map[EntityID]Monster
	players  map[EntityID]*Player
	nextID   EntityID

	rockets      []Rocket
	mines        []Mine
	nextRocketID EntityID

	windField  []windCell
	deathField []damageFieldCell

	mapEndTriggered bool
	mapEndReported  bool

	events eventBatches
}

// MapOption tweaks construction without widening the constructor.
type MapOption func(*Map)

// WithPublisher routes simulation events to the given publisher.
func WithPublisher(p logging.Publisher) MapOption {
	return func(m *Map) {
		if p != nil {
			m.publisher = p
		}
	}
}

// WithRandomSeed fixes the root seed for all derived random streams.
func WithRandomSeed(seed int64) MapOption {
	return func(m *Map) {
		m.rng = newDeterministicRNG(seed, "map")
	}
}

// NewMap builds the runtime state for one level. Placements that fail the
// difficulty filter are skipped; everything else snaps to its floor level
// and starts in its rest state.
func NewMap(difficulty DifficultyFlags, data *MapData, resources *GameResources, endCallback MapEndCallback, now time.Time, opts ...MapOption) *Map {
	m := &Map{
		difficulty:  difficulty,
		data:        data,
		resources:   resources,
		endCallback: endCallback,
		publisher:   logging.NopPublisher(),
		rng:         newDeterministicRNG(now.UnixNano(), "map"),
		startTime:   now,
		monsters:    make(map[EntityID]Monster),
		players:     make(map[EntityID]*Player),
		nextID:      1,
		windField:   make([]windCell, MapCellCount*MapCellCount),
		deathField:  make([]damageFieldCell, MapCellCount*MapCellCount),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.index = newCollisionIndex(data)

	m.procedures = make([]ProcedureState, len(data.Procedures))
	for p := range m.procedures {
		proc := &m.procedures[p]
		proc.locked = data.Procedures[p].Locked
		proc.lastStateChange = now
	}

	m.dynamicWalls = make([]DynamicWall, len(data.DynamicWalls))
	for w := range m.dynamicWalls {
		template := &data.DynamicWalls[w]
		wall := &m.dynamicWalls[w]
		wall.verts = template.Verts
		wall.textureID = template.TextureID
		wall.transform.clear()
	}

	m.staticModels = make([]StaticModel, len(data.StaticModels))
	for i := range m.staticModels {
		placement := &data.StaticModels[i]
		model := &m.staticModels[i]
		model.pos = mgl64.Vec3{placement.Pos.X(), placement.Pos.Y(), 0}
		model.angle = placement.Angle
		model.modelID = placement.ModelID
		model.transform.clear()
		model.animationStartTime = now

		desc := m.modelDescription(model.modelID)
		if desc != nil {
			model.health = desc.BreakLimit
			if desc.AC != ACodeNone {
				model.animationState = AnimationSingleFrame
			}
		}
		if model.animationState != AnimationSingleFrame {
			model.animationState = AnimationLoop
		}

		radius := 0.0
		if desc != nil {
			radius = desc.Radius
		}
		floor := m.floorLevelExcluding(placement.Pos, radius, i)
		model.pos[2] = floor
		model.baseZ = floor
	}

	m.items = make([]Item, len(data.Items))
	for i := range m.items {
		placement := &data.Items[i]
		item := &m.items[i]
		item.itemID = placement.ItemID
		floor := m.GetFloorLevel(placement.Pos, 0)
		item.pos = mgl64.Vec3{placement.Pos.X(), placement.Pos.Y(), floor}
	}

	for i := range data.Monsters {
		placement := &data.Monsters[i]
		if placement.MonsterID == playerTypeID {
			continue
		}
		if placement.DifficultyFlags&difficulty == 0 {
			continue
		}
		radius := 0.0
		if desc := m.monsterDescription(placement.MonsterID); desc != nil {
			radius = desc.Radius
		}
		floor := m.GetFloorLevel(placement.Pos, radius)
		id := m.allocateID()
		rng := newDeterministicRNG(m.rng.Int63(), "monster")
		m.monsters[id] = newNPCMonster(*placement, floor, resources, rng, now)
	}

	m.publish(logging.EventMapLoaded, logging.SeverityInfo,
		logging.EntityRef{Kind: logging.EntityKindMap},
		map[string]any{
			"monsters":     len(m.monsters),
			"procedures":   len(m.procedures),
			"dynamicWalls": len(m.dynamicWalls),
		})

	return m
}

func (m *Map) publish(eventType logging.EventType, severity logging.Severity, actor logging.EntityRef, payload any) {
	m.publisher.Publish(context.Background(), logging.Event{
		Type:     eventType,
		Tick:     m.tick,
		Time:     time.Now(),
		Actor:    actor,
		Severity: severity,
		Payload:  payload,
	})
}

func playerRef(id EntityID) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(int(id)), Kind: logging.EntityKindPlayer}
}

func monsterRef(id EntityID) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(int(id)), Kind: logging.EntityKindMonster}
}

func procedureRef(proc int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(proc), Kind: logging.EntityKindProcedure}
}

func (m *Map) allocateID() EntityID {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Map) modelDescription(modelID int) *ModelDescription {
	if modelID < 0 || modelID >= len(m.data.ModelsDescription) {
		return nil
	}
	return &m.data.ModelsDescription[modelID]
}

func (m *Map) modelGeometry(modelID int) *ModelGeometry {
	if modelID < 0 || modelID >= len(m.data.Models) {
		return nil
	}
	return &m.data.Models[modelID]
}

func (m *Map) monsterDescription(monsterID uint8) *MonsterDescription {
	if int(monsterID) >= len(m.resources.MonstersDescription) {
		return nil
	}
	return &m.resources.MonstersDescription[monsterID]
}

// GetDifficulty reports the difficulty the map was built with.
func (m *Map) GetDifficulty() DifficultyFlags {
	return m.difficulty
}

// GetPlayers exposes the live player set for the connection layer.
func (m *Map) GetPlayers() map[EntityID]*Player {
	return m.players
}

func (m *Map) sortedMonsterIDs() []EntityID {
	ids := make([]EntityID, 0, len(m.monsters))
	for id := range m.monsters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SpawnPlayer places a player at the designated spawn with the lowest spawn
// ordinal and registers it as a monster. The returned id identifies the
// player in all subsequent messages.
func (m *Map) SpawnPlayer(player *Player) EntityID {
	spawn := (*MonsterPlacement)(nil)
	for i := range m.data.Monsters {
		placement := &m.data.Monsters[i]
		if placement.MonsterID != playerTypeID {
			continue
		}
		if spawn == nil || placement.DifficultyFlags < spawn.DifficultyFlags {
			spawn = placement
		}
	}
	if spawn != nil {
		floor := m.GetFloorLevel(spawn.Pos, playerRadius)
		player.Teleport(mgl64.Vec3{spawn.Pos.X(), spawn.Pos.Y(), floor}, spawn.Angle)
	} else {
		player.Teleport(mgl64.Vec3{float64(MapCellCount) / 2, float64(MapCellCount) / 2, 0}, 0)
	}

	player.SetRandomSource(newDeterministicRNG(m.rng.Int63(), "player"))
	player.ResetActivatedProcedure()

	id := m.allocateID()
	m.players[id] = player
	m.monsters[id] = player

	m.publish(logging.EventPlayerSpawned, logging.SeverityInfo, playerRef(id), nil)
	return id
}

// RemovePlayer drops a disconnected player from the simulation.
func (m *Map) RemovePlayer(id EntityID) {
	delete(m.players, id)
	delete(m.monsters, id)
}

// Shoot launches a rocket of the given type. Instant-hit types resolve
// during the next tick; all others get a birth message immediately.
func (m *Map) Shoot(ownerID EntityID, rocketTypeID uint8, from, normalizedDirection mgl64.Vec3, now time.Time) {
	if int(rocketTypeID) >= len(m.resources.RocketsDescription) {
		m.publish(logging.EventSimulationError, logging.SeverityWarn,
			logging.EntityRef{Kind: logging.EntityKindRocket},
			map[string]any{"reason": "unknown rocket type", "rocketType": rocketTypeID})
		return
	}

	speed := rocketsSpeed
	if m.resources.RocketsDescription[rocketTypeID].Fast {
		speed = fastRocketsSpeed
	}
	rocket := Rocket{
		id:               m.nextRocketID,
		ownerID:          ownerID,
		typeID:           rocketTypeID,
		startTime:        now,
		startPoint:       from,
		direction:        normalizedDirection,
		speed:            normalizedDirection.Mul(speed),
		previousPosition: from,
	}
	m.nextRocketID++
	m.rockets = append(m.rockets, rocket)

	if !m.resources.RocketsDescription[rocketTypeID].InstantHit() {
		yaw, pitch := directionAngles(normalizedDirection)
		m.events.rocketBirths = append(m.events.rocketBirths, messages.RocketBirth{
			RocketID:   uint16(rocket.id),
			RocketType: rocketTypeID,
			Pos:        messagePosition(from),
			AngleZ:     yaw,
			AngleX:     pitch,
		})
	}
}

// PlantMine drops an armed-after-delay charge at the given spot.
func (m *Map) PlantMine(ownerID EntityID, pos mgl64.Vec3, now time.Time) {
	mine := Mine{
		id:        m.nextRocketID,
		pos:       pos,
		plantTime: now,
	}
	m.nextRocketID++
	floor := m.GetFloorLevel(mgl64.Vec2{pos.X(), pos.Y()}, minePlantRadius)
	mine.pos[2] = floor
	m.mines = append(m.mines, mine)

	m.events.dynamicItemBirths = append(m.events.dynamicItemBirths, messages.DynamicItemBirth{
		ItemID:     uint16(mine.id),
		ItemTypeID: mineItemTypeID,
		Pos:        messagePosition(mine.pos),
	})
}

// GetFloorLevel finds the highest walkable surface under a circle: the base
// floor, plus the top of any nearby breakable model low enough to stand on.
func (m *Map) GetFloorLevel(pos mgl64.Vec2, radius float64) float64 {
	return m.floorLevelExcluding(pos, radius, -1)
}

// floorLevelExcluding is GetFloorLevel with one model left out, so a model
// snapping to its own floor does not stack onto itself.
func (m *Map) floorLevelExcluding(pos mgl64.Vec2, radius float64, excludeModel int) float64 {
	result := 0.0
	m.index.ProcessElementsInRadius(pos, radius, func(el IndexElement) {
		if el.Kind != ElementStaticModel || el.Index == excludeModel {
			return
		}
		model := &m.staticModels[el.Index]
		if model.picked {
			return
		}
		desc := m.modelDescription(model.modelID)
		geom := m.modelGeometry(model.modelID)
		if desc == nil || geom == nil || desc.Radius <= 0 {
			return
		}
		if desc.AC != ACodeNone {
			return
		}
		delta := pos.Sub(mgl64.Vec2{model.pos.X(), model.pos.Y()})
		if delta.Len() > desc.Radius+radius {
			return
		}
		top := model.pos.Z() + geom.ZMax
		if top > result && top <= maxFloorLevel {
			result = top
		}
	})
	return result
}

// FindNearestPlayerPos locates the closest live player to a point.
func (m *Map) FindNearestPlayerPos(from mgl64.Vec3) (mgl64.Vec3, bool) {
	best := mgl64.Vec3{}
	bestDist := math.Inf(1)
	found := false
	for _, player := range m.players {
		if player.Health() <= 0 {
			continue
		}
		d := player.Position().Sub(from).Len()
		if d < bestDist {
			bestDist = d
			best = player.Position()
			found = true
		}
	}
	return best, found
}
