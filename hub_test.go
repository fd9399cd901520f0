package main

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestHub() *Hub {
	cfg := serverConfig{
		Difficulty: DifficultyNormal,
		Seed:       1,
		SeedSet:    true,
	}
	return newHub(cfg, newTestMapData(), newTestResources(), nil)
}

func TestHubJoinSpawnsPlayer(t *testing.T) {
	h := newTestHub()
	resp := h.Join()
	if resp.TickRate != tickRate {
		t.Fatalf("join must report the tick rate, got %d", resp.TickRate)
	}
	if resp.Difficulty != "normal" {
		t.Fatalf("join must report the difficulty, got %q", resp.Difficulty)
	}
	if _, ok := h.gameMap.GetPlayers()[resp.ID]; !ok {
		t.Fatalf("joined player %d missing from the map", resp.ID)
	}
}

func TestHubUpdateIntentRequiresKnownPlayer(t *testing.T) {
	h := newTestHub()
	if h.UpdateIntent(99, 1, 0, 0) {
		t.Fatalf("intent for an unknown player must be rejected")
	}

	resp := h.Join()
	if !h.UpdateIntent(resp.ID, 1, 0, 0.5) {
		t.Fatalf("intent for a joined player must be accepted")
	}
	player := h.gameMap.GetPlayers()[resp.ID]
	if player.Angle() != 0.5 {
		t.Fatalf("intent must update the view angle, got %f", player.Angle())
	}
}

func TestHubShootRejectsZeroDirectionAndDeadPlayers(t *testing.T) {
	h := newTestHub()
	resp := h.Join()

	if h.HandleShoot(resp.ID, 1, 0, 0, 0) {
		t.Fatalf("zero direction must be rejected")
	}
	if !h.HandleShoot(resp.ID, 1, 1, 0, 0) {
		t.Fatalf("live player with a direction must fire")
	}

	player := h.gameMap.GetPlayers()[resp.ID]
	player.Hit(999, h.gameMap, resp.ID, time.Now())
	if h.HandleShoot(resp.ID, 1, 1, 0, 0) {
		t.Fatalf("dead player must not fire")
	}
}

func TestHubAdvanceProducesBatchFrame(t *testing.T) {
	h := newTestHub()
	h.Join()

	data, closed := h.advance(time.Now(), time.Second/tickRate)
	if len(closed) != 0 {
		t.Fatalf("fresh player must not be timed out")
	}

	var frame struct {
		Type       string            `json:"type"`
		Unreliable []json.RawMessage `json:"unreliable"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("advance must produce a JSON batch frame: %v", err)
	}
	if frame.Type != "batch" {
		t.Fatalf("frame type %q, want batch", frame.Type)
	}
	if len(frame.Unreliable) == 0 {
		t.Fatalf("update frame must carry unreliable state messages")
	}
}

func TestHubAdvanceDropsStalePlayers(t *testing.T) {
	h := newTestHub()
	resp := h.Join()

	player := h.gameMap.GetPlayers()[resp.ID]
	player.lastHeartbeat = time.Now().Add(-2 * disconnectAfter)

	h.advance(time.Now(), time.Second/tickRate)
	if _, ok := h.gameMap.GetPlayers()[resp.ID]; ok {
		t.Fatalf("player without heartbeats must be removed")
	}
}

func TestHubHeartbeatTracksRTT(t *testing.T) {
	h := newTestHub()
	resp := h.Join()

	receivedAt := time.Now()
	rtt, ok := h.UpdateHeartbeat(resp.ID, receivedAt, receivedAt.Add(-40*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatalf("heartbeat for a joined player must be accepted")
	}
	if rtt < 30*time.Millisecond || rtt > 50*time.Millisecond {
		t.Fatalf("measured rtt %v, want about 40ms", rtt)
	}
}
