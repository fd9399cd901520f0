// Package logging provides the structured event publisher used by the
// simulation for operational visibility. Gameplay state changes travel
// through the message batches, not through here.
package logging

import (
	"context"
	"time"
)

type EventType string

const (
	EventMapLoaded          EventType = "map_loaded"
	EventPlayerSpawned      EventType = "player_spawned"
	EventPlayerLeft         EventType = "player_left"
	EventProcedureActivated EventType = "procedure_activated"
	EventProcedureState     EventType = "procedure_state"
	EventModelDestroyed     EventType = "model_destroyed"
	EventMonsterKilled      EventType = "monster_killed"
	EventMapEnd             EventType = "map_end"
	EventSimulationError    EventType = "simulation_error"
)

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown   EntityKind = "unknown"
	EntityKindPlayer    EntityKind = "player"
	EntityKindMonster   EntityKind = "monster"
	EntityKindProcedure EntityKind = "procedure"
	EntityKindModel     EntityKind = "model"
	EntityKindRocket    EntityKind = "rocket"
	EntityKindMap       EntityKind = "map"
)

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Severity Severity       `json:"severity"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Publisher accepts simulation events. Implementations must be safe to call
// from the tick loop without blocking it.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher returns a publisher that drops every event.
func NopPublisher() Publisher {
	return nopPublisher{}
}
