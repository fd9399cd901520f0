package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ProcessPlayerPosition checks everything a player can trigger by standing
// somewhere: floor links around the current cell, wall and model touch
// links, key models, and item pickups. The hub calls this after applying a
// player's movement for the tick.
func (m *Map) ProcessPlayerPosition(now time.Time, playerID EntityID) {
	player, ok := m.players[playerID]
	if !ok {
		return
	}

	pos := player.Position()
	xy := mgl64.Vec2{pos.X(), pos.Y()}
	cellX := int(math.Floor(pos.X()))
	cellY := int(math.Floor(pos.Y()))

	// nearLatch tracks whether the latched procedure's trigger region is
	// still in reach; leaving it rearms the latch.
	nearLatch := false
	touchProcedure := func(kind LinkKind, procID int) {
		switch kind {
		case LinkFloor, LinkLink:
			if procID == player.ActivatedProcedure() {
				nearLatch = true
			}
			if player.TryActivateProcedure(procID, now) {
				nearLatch = true
				m.TryActivateProcedure(procID, player, now)
			}
		case LinkReturnFloor, LinkReturn:
			m.ReturnProcedure(procID, now)
		}
	}

	for _, link := range m.data.Links {
		if link.Kind != LinkFloor && link.Kind != LinkReturnFloor {
			continue
		}
		if link.X < cellX-2 || link.X > cellX+2 || link.Y < cellY-2 || link.Y > cellY+2 {
			continue
		}
		if !CircleIntersectsWithSquare(xy, playerRadius, link.X, link.Y) {
			continue
		}
		touchProcedure(link.Kind, link.ProcID)
	}

	m.index.ProcessElementsInRadius(xy, playerInteractRadius, func(el IndexElement) {
		switch el.Kind {
		case ElementStaticWall:
			wall := &m.data.StaticWalls[el.Index]
			if wall.TextureID >= 0 && wall.TextureID < len(m.data.WallTextures) &&
				m.data.WallTextures[wall.TextureID].PassThrough {
				return
			}
			if _, touching := CollideCircleWithLineSegment(wall.Verts[0], wall.Verts[1], xy, playerInteractRadius); !touching {
				return
			}
			m.processElementLinks(ElementStaticWall, el.Index, func(link Link) {
				touchProcedure(link.Kind, link.ProcID)
			})

		case ElementStaticModel:
			m.touchStaticModel(el.Index, player, playerID, xy, func(link Link) {
				touchProcedure(link.Kind, link.ProcID)
			})
		}
	})

	for w := range m.dynamicWalls {
		wall := &m.dynamicWalls[w]
		if pos.Z() >= wall.z+wallsHeight || pos.Z()+playerHeight <= wall.z {
			continue
		}
		if _, touching := CollideCircleWithLineSegment(wall.verts[0], wall.verts[1], xy, playerInteractRadius); !touching {
			continue
		}
		m.processElementLinks(ElementDynamicWall, w, func(link Link) {
			touchProcedure(link.Kind, link.ProcID)
		})
	}

	for i := range m.items {
		item := &m.items[i]
		if item.picked {
			continue
		}
		if xy.Sub(mgl64.Vec2{item.pos.X(), item.pos.Y()}).Len() > playerInteractRadius {
			continue
		}
		code := ACodeNone
		if item.itemID >= 0 && item.itemID < len(m.resources.ItemsDescription) {
			code = m.resources.ItemsDescription[item.itemID].ACode
		}
		if !player.TryPickupItem(code) {
			continue
		}
		item.picked = true
		m.PlayMonsterLinkedSound(playerID, itemPickupSound(code))
		m.processElementLinks(ElementItem, i, func(link Link) {
			touchProcedure(link.Kind, link.ProcID)
		})
	}

	if !nearLatch && player.ActivatedProcedure() != -1 {
		player.ResetActivatedProcedure()
	}
}

// touchStaticModel handles a model in interact range: key models are picked
// up, everything else just fires its touch links.
func (m *Map) touchStaticModel(modelIndex int, player *Player, playerID EntityID, xy mgl64.Vec2, touchProcedure func(Link)) {
	model := &m.staticModels[modelIndex]
	if model.picked {
		return
	}
	desc := m.modelDescription(model.modelID)
	if desc == nil {
		return
	}
	radius := desc.Radius
	if radius <= 0 {
		radius = 0
	}
	if xy.Sub(mgl64.Vec2{model.pos.X(), model.pos.Y()}).Len() > radius+playerInteractRadius {
		return
	}

	switch desc.AC {
	case ACodeRedKey, ACodeGreenKey, ACodeBlueKey:
		model.picked = true
		switch desc.AC {
		case ACodeRedKey:
			player.GiveRedKey()
		case ACodeGreenKey:
			player.GiveGreenKey()
		case ACodeBlueKey:
			player.GiveBlueKey()
		}
		m.PlayMonsterLinkedSound(playerID, soundGetKey)
		m.processElementLinks(ElementStaticModel, modelIndex, touchProcedure)
	default:
		m.processElementLinks(ElementStaticModel, modelIndex, touchProcedure)
	}
}

// itemPickupSound picks the pickup sound by item category.
func itemPickupSound(code ACode) uint16 {
	switch {
	case code >= ACodeWeaponFirst && code <= ACodeWeaponLast:
		return soundFirstWeaponPickup
	case code == ACodeItemLife || code == ACodeItemBigLife:
		return soundHealth
	default:
		return soundItemUp
	}
}
