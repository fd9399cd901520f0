// Package messages defines the wire-facing records the simulation emits.
// The engine only accumulates them; serialization and transport belong to
// the hub and its clients.
package messages

// Message is implemented by every record the simulation can emit. Type
// returns the stable name used as the envelope tag on the wire.
type Message interface {
	Type() string
}

// Sender receives the per-tick message batches. Reliable messages must
// reach every observer (joins, births); unreliable messages are
// regenerated every tick and may be dropped.
type Sender interface {
	SendReliable(Message)
	SendUnreliable(Message)
}

// Vec3 is a wire-friendly position triple.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MonsterState is the per-tick absolute state of one monster or player.
type MonsterState struct {
	MonsterID      uint16  `json:"monsterId"`
	Pos            Vec3    `json:"pos"`
	Angle          float64 `json:"angle"`
	MonsterType    uint8   `json:"monsterType"`
	BodyPartsMask  uint16  `json:"bodyPartsMask"`
	Animation      uint16  `json:"animation"`
	AnimationFrame uint16  `json:"animationFrame"`
}

func (MonsterState) Type() string { return "monster_state" }

// MonsterBirth announces a monster to a newly connected observer.
type MonsterBirth struct {
	MonsterID    uint16       `json:"monsterId"`
	InitialState MonsterState `json:"initialState"`
}

func (MonsterBirth) Type() string { return "monster_birth" }

// WallPosition is the per-tick absolute state of one dynamic wall.
type WallPosition struct {
	WallIndex int           `json:"wallIndex"`
	Vertices  [2][2]float64 `json:"vertices"`
	Z         float64       `json:"z"`
	TextureID int           `json:"textureId"`
}

func (WallPosition) Type() string { return "wall_position" }

// StaticModelState is the per-tick absolute state of one static model.
type StaticModelState struct {
	ModelIndex       int     `json:"modelIndex"`
	Pos              Vec3    `json:"pos"`
	Angle            float64 `json:"angle"`
	ModelID          int     `json:"modelId"`
	AnimationFrame   int     `json:"animationFrame"`
	AnimationPlaying bool    `json:"animationPlaying"`
	Visible          bool    `json:"visible"`
}

func (StaticModelState) Type() string { return "static_model_state" }

// ItemState is the per-tick absolute state of one placed item.
type ItemState struct {
	ItemIndex int     `json:"itemIndex"`
	Z         float64 `json:"z"`
	Picked    bool    `json:"picked"`
}

func (ItemState) Type() string { return "item_state" }

// SpriteEffectBirth spawns a transient sprite (smoke trail puffs).
type SpriteEffectBirth struct {
	EffectID uint8 `json:"effectId"`
	Pos      Vec3  `json:"pos"`
}

func (SpriteEffectBirth) Type() string { return "sprite_effect_birth" }

// RocketBirth announces a travelling rocket. Instant-hit rockets never emit
// birth or death messages.
type RocketBirth struct {
	RocketID   uint16  `json:"rocketId"`
	RocketType uint8   `json:"rocketType"`
	Pos        Vec3    `json:"pos"`
	AngleZ     float64 `json:"angleZ"`
	AngleX     float64 `json:"angleX"`
}

func (RocketBirth) Type() string { return "rocket_birth" }

// RocketDeath removes a travelling rocket.
type RocketDeath struct {
	RocketID uint16 `json:"rocketId"`
}

func (RocketDeath) Type() string { return "rocket_death" }

// RocketState is the per-tick absolute state of one live rocket.
type RocketState struct {
	RocketID uint16  `json:"rocketId"`
	Pos      Vec3    `json:"pos"`
	AngleZ   float64 `json:"angleZ"`
	AngleX   float64 `json:"angleX"`
}

func (RocketState) Type() string { return "rocket_state" }

// DynamicItemBirth announces a dynamic pickup-like object (mines).
type DynamicItemBirth struct {
	ItemID     uint16 `json:"itemId"`
	ItemTypeID uint8  `json:"itemTypeId"`
	Pos        Vec3   `json:"pos"`
}

func (DynamicItemBirth) Type() string { return "dynamic_item_birth" }

// DynamicItemDeath removes a dynamic object.
type DynamicItemDeath struct {
	ItemID uint16 `json:"itemId"`
}

func (DynamicItemDeath) Type() string { return "dynamic_item_death" }

// ParticleEffectBirth spawns a one-shot particle effect.
type ParticleEffectBirth struct {
	EffectID uint8 `json:"effectId"`
	Pos      Vec3  `json:"pos"`
}

func (ParticleEffectBirth) Type() string { return "particle_effect_birth" }

// MonsterPartBirth spawns a severed body part.
type MonsterPartBirth struct {
	MonsterType uint8   `json:"monsterType"`
	PartID      uint8   `json:"partId"`
	Pos         Vec3    `json:"pos"`
	Angle       float64 `json:"angle"`
}

func (MonsterPartBirth) Type() string { return "monster_part_birth" }

// MapEventSound plays a positional one-shot sound.
type MapEventSound struct {
	SoundID uint16 `json:"soundId"`
	Pos     Vec3   `json:"pos"`
}

func (MapEventSound) Type() string { return "map_event_sound" }

// MonsterLinkedSound plays a sound attached to a monster.
type MonsterLinkedSound struct {
	MonsterID uint16 `json:"monsterId"`
	SoundID   uint16 `json:"soundId"`
}

func (MonsterLinkedSound) Type() string { return "monster_linked_sound" }

// MonsterSound plays one of a monster type's own sounds.
type MonsterSound struct {
	MonsterID      uint16 `json:"monsterId"`
	MonsterSoundID uint16 `json:"monsterSoundId"`
}

func (MonsterSound) Type() string { return "monster_sound" }

// TextMessage shows a scripted level text by table number.
type TextMessage struct {
	Number int `json:"number"`
}

func (TextMessage) Type() string { return "text_message" }

// Catalog enumerates every wire message for schema generation. The cmd
// under cmd/schema reflects this struct into a JSON schema consumed by
// client tooling.
type Catalog struct {
	MonsterState       MonsterState        `json:"monster_state"`
	MonsterBirth       MonsterBirth        `json:"monster_birth"`
	WallPosition       WallPosition        `json:"wall_position"`
	StaticModelState   StaticModelState    `json:"static_model_state"`
	ItemState          ItemState           `json:"item_state"`
	SpriteEffectBirth  SpriteEffectBirth   `json:"sprite_effect_birth"`
	RocketBirth        RocketBirth         `json:"rocket_birth"`
	RocketDeath        RocketDeath         `json:"rocket_death"`
	RocketState        RocketState         `json:"rocket_state"`
	DynamicItemBirth   DynamicItemBirth    `json:"dynamic_item_birth"`
	DynamicItemDeath   DynamicItemDeath    `json:"dynamic_item_death"`
	ParticleEffect     ParticleEffectBirth `json:"particle_effect_birth"`
	MonsterPartBirth   MonsterPartBirth    `json:"monster_part_birth"`
	MapEventSound      MapEventSound       `json:"map_event_sound"`
	MonsterLinkedSound MonsterLinkedSound  `json:"monster_linked_sound"`
	MonsterSound       MonsterSound        `json:"monster_sound"`
	TextMessage        TextMessage         `json:"text_message"`
}
