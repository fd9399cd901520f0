package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/messages"
)

// Sound ids used directly by the simulation. Levels reference further ids
// through their own data.
const (
	soundGetKey            = 5
	soundItemUp            = 6
	soundHealth            = 7
	soundFirstWeaponPickup = 10
	soundMineOn            = 38
	soundExplosion         = 40
	soundFirstRocketHit    = 80
)

// Monster-local sound slots.
const (
	monsterSoundPain  = 1
	monsterSoundDeath = 2
)

// ParticleEffect enumerates the one-shot visual effects the simulation can
// request.
type ParticleEffect uint8

const (
	ParticleEffectBlood ParticleEffect = iota
	ParticleEffectBullet
	ParticleEffectSparkles
	ParticleEffectExplosion

	// Destruction effects occupy a range starting here, offset by the
	// model's blow-effect code.
	ParticleEffectFirstBlow ParticleEffect = 16
)

// SpriteEffect is a transient world sprite that lives for exactly one
// tick's event batch.
type SpriteEffect struct {
	pos      mgl64.Vec3
	effectID uint8
}

// eventBatches accumulates everything the simulation produced since the
// last drain. Transient batches are appended during the tick and cleared by
// ClearUpdateEvents; absolute-state messages are regenerated from live
// state on every send.
type eventBatches struct {
	spriteEffects []SpriteEffect

	rocketBirths      []messages.RocketBirth
	rocketDeaths      []messages.RocketDeath
	dynamicItemBirths []messages.DynamicItemBirth
	dynamicItemDeaths []messages.DynamicItemDeath
	particleEffects   []messages.ParticleEffectBirth
	monsterPartBirths []messages.MonsterPartBirth
	mapSounds         []messages.MapEventSound
	monsterLinked     []messages.MonsterLinkedSound
	monsterSounds     []messages.MonsterSound
	textMessages      []messages.TextMessage
}

func messagePosition(pos mgl64.Vec3) messages.Vec3 {
	return messages.Vec3{X: pos.X(), Y: pos.Y(), Z: pos.Z()}
}

// directionAngles splits a normalized direction into yaw and pitch.
func directionAngles(dir mgl64.Vec3) (float64, float64) {
	yaw := math.Atan2(dir.Y(), dir.X())
	pitch := math.Asin(clamp(dir.Z(), -1, 1))
	return yaw, pitch
}

// PlayMapEventSound queues a positional one-shot sound.
func (m *Map) PlayMapEventSound(pos mgl64.Vec3, soundID uint16) {
	m.events.mapSounds = append(m.events.mapSounds, messages.MapEventSound{
		SoundID: soundID,
		Pos:     messagePosition(pos),
	})
}

// PlayMonsterLinkedSound queues a sound attached to a monster.
func (m *Map) PlayMonsterLinkedSound(monsterID EntityID, soundID uint16) {
	m.events.monsterLinked = append(m.events.monsterLinked, messages.MonsterLinkedSound{
		MonsterID: uint16(monsterID),
		SoundID:   soundID,
	})
}

// PlayMonsterSound queues one of a monster type's own sounds.
func (m *Map) PlayMonsterSound(monsterID EntityID, monsterSoundID uint16) {
	m.events.monsterSounds = append(m.events.monsterSounds, messages.MonsterSound{
		MonsterID:      uint16(monsterID),
		MonsterSoundID: monsterSoundID,
	})
}

// AddParticleEffect queues a one-shot particle effect.
func (m *Map) AddParticleEffect(pos mgl64.Vec3, effect ParticleEffect) {
	m.events.particleEffects = append(m.events.particleEffects, messages.ParticleEffectBirth{
		EffectID: uint8(effect),
		Pos:      messagePosition(pos),
	})
}

// SpawnMonsterBodyPart queues a severed body part for the presentation
// layer.
func (m *Map) SpawnMonsterBodyPart(monsterTypeID, bodyPartID uint8, pos mgl64.Vec3, angle float64) {
	m.events.monsterPartBirths = append(m.events.monsterPartBirths, messages.MonsterPartBirth{
		MonsterType: monsterTypeID,
		PartID:      bodyPartID,
		Pos:         messagePosition(pos),
		Angle:       angle,
	})
}

func (m *Map) addTextMessage(number int) {
	if number == 0 {
		return
	}
	m.events.textMessages = append(m.events.textMessages, messages.TextMessage{Number: number})
}

func (m *Map) monsterStateMessage(id EntityID, monster Monster) messages.MonsterState {
	return messages.MonsterState{
		MonsterID:      uint16(id),
		Pos:            messagePosition(monster.Position()),
		Angle:          monster.Angle(),
		MonsterType:    monster.TypeID(),
		BodyPartsMask:  monster.BodyPartsMask(),
		Animation:      monster.CurrentAnimation(),
		AnimationFrame: monster.CurrentAnimationFrame(),
	}
}

// SendMessagesForNewlyConnectedPlayer emits the one-time full-state dump a
// new observer needs before delta updates make sense.
func (m *Map) SendMessagesForNewlyConnectedPlayer(sender messages.Sender) {
	for _, id := range m.sortedMonsterIDs() {
		birth := messages.MonsterBirth{
			MonsterID:    uint16(id),
			InitialState: m.monsterStateMessage(id, m.monsters[id]),
		}
		sender.SendReliable(birth)
	}
}

// SendUpdateMessages emits the per-tick delta dump: absolute state for
// dynamic walls, models, items, monsters, and rockets, plus every transient
// batch accumulated since the last ClearUpdateEvents.
func (m *Map) SendUpdateMessages(sender messages.Sender) {
	for w := range m.dynamicWalls {
		wall := &m.dynamicWalls[w]
		msg := messages.WallPosition{
			WallIndex: w,
			Z:         wall.z,
			TextureID: wall.textureID,
		}
		for j := 0; j < 2; j++ {
			msg.Vertices[j][0] = wall.verts[j].X()
			msg.Vertices[j][1] = wall.verts[j].Y()
		}
		sender.SendUnreliable(msg)
	}

	for i := range m.staticModels {
		model := &m.staticModels[i]
		sender.SendUnreliable(messages.StaticModelState{
			ModelIndex:       i,
			Pos:              messagePosition(model.pos),
			Angle:            model.angle,
			ModelID:          model.modelID,
			AnimationFrame:   model.currentFrame,
			AnimationPlaying: model.animationState == AnimationLoop,
			Visible:          !model.picked,
		})
	}

	for i := range m.items {
		item := &m.items[i]
		sender.SendUnreliable(messages.ItemState{
			ItemIndex: i,
			Z:         item.pos.Z(),
			Picked:    item.picked,
		})
	}

	for _, effect := range m.events.spriteEffects {
		sender.SendUnreliable(messages.SpriteEffectBirth{
			EffectID: effect.effectID,
			Pos:      messagePosition(effect.pos),
		})
	}

	for _, id := range m.sortedMonsterIDs() {
		sender.SendUnreliable(m.monsterStateMessage(id, m.monsters[id]))
	}

	for _, msg := range m.events.rocketBirths {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.rocketDeaths {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.dynamicItemBirths {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.dynamicItemDeaths {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.particleEffects {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.monsterPartBirths {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.mapSounds {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.monsterLinked {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.monsterSounds {
		sender.SendUnreliable(msg)
	}
	for _, msg := range m.events.textMessages {
		sender.SendUnreliable(msg)
	}

	for r := range m.rockets {
		rocket := &m.rockets[r]
		yaw, pitch := directionAngles(rocket.direction)
		sender.SendUnreliable(messages.RocketState{
			RocketID: uint16(rocket.id),
			Pos:      messagePosition(rocket.previousPosition),
			AngleZ:   yaw,
			AngleX:   pitch,
		})
	}
}

// ClearUpdateEvents empties the transient batches after a drain. Absolute
// state sections regenerate on the next send and are unaffected.
func (m *Map) ClearUpdateEvents() {
	m.events.spriteEffects = m.events.spriteEffects[:0]
	m.events.rocketBirths = m.events.rocketBirths[:0]
	m.events.rocketDeaths = m.events.rocketDeaths[:0]
	m.events.dynamicItemBirths = m.events.dynamicItemBirths[:0]
	m.events.dynamicItemDeaths = m.events.dynamicItemDeaths[:0]
	m.events.particleEffects = m.events.particleEffects[:0]
	m.events.monsterPartBirths = m.events.monsterPartBirths[:0]
	m.events.mapSounds = m.events.mapSounds[:0]
	m.events.monsterLinked = m.events.monsterLinked[:0]
	m.events.monsterSounds = m.events.monsterSounds[:0]
	m.events.textMessages = m.events.textMessages[:0]
}
