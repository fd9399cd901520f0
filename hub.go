package main

import (
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"stonefall/server/logging"
	"stonefall/server/messages"
)

// envelope wraps one simulation message with its wire tag.
type envelope struct {
	Type string           `json:"type"`
	Data messages.Message `json:"data"`
}

// batchMessage is the single frame a subscriber receives per tick.
type batchMessage struct {
	Type       string     `json:"type"`
	ServerTime int64      `json:"serverTime"`
	Reliable   []envelope `json:"reliable,omitempty"`
	Unreliable []envelope `json:"unreliable,omitempty"`
}

// messageBatch implements messages.Sender by accumulating envelopes.
type messageBatch struct {
	reliable   []envelope
	unreliable []envelope
}

func (b *messageBatch) SendReliable(msg messages.Message) {
	b.reliable = append(b.reliable, envelope{Type: msg.Type(), Data: msg})
}

func (b *messageBatch) SendUnreliable(msg messages.Message) {
	b.unreliable = append(b.unreliable, envelope{Type: msg.Type(), Data: msg})
}

func (b *messageBatch) frame(now time.Time) ([]byte, error) {
	return json.Marshal(batchMessage{
		Type:       "batch",
		ServerTime: now.UnixMilli(),
		Reliable:   b.reliable,
		Unreliable: b.unreliable,
	})
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

type joinResponse struct {
	ID         EntityID `json:"id"`
	TickRate   int      `json:"tickRate"`
	Difficulty string   `json:"difficulty"`
}

type diagnosticsPlayer struct {
	ID            EntityID `json:"id"`
	LastHeartbeat int64    `json:"lastHeartbeat"`
	RTTMillis     int64    `json:"rttMillis"`
}

// Hub owns the simulation and every live connection. All map access runs
// under the hub mutex; the map itself is single-threaded.
type Hub struct {
	mu          sync.Mutex
	gameMap     *Map
	subscribers map[EntityID]*subscriber
	mapEnded    bool
	publisher   logging.Publisher
}

func newHub(cfg serverConfig, data *MapData, resources *GameResources, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	h := &Hub{
		subscribers: make(map[EntityID]*subscriber),
		publisher:   publisher,
	}

	opts := []MapOption{WithPublisher(publisher)}
	if cfg.SeedSet {
		opts = append(opts, WithRandomSeed(cfg.Seed))
	}
	h.gameMap = NewMap(cfg.Difficulty, data, resources, h.onMapEnd, time.Now(), opts...)
	return h
}

// onMapEnd runs inside Tick while the hub mutex is held; it only flags.
func (h *Hub) onMapEnd() {
	h.mapEnded = true
	log.Printf("map end reached")
}

func difficultyName(d DifficultyFlags) string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	default:
		return "normal"
	}
}

// Join spawns a new player and hands back its id.
func (h *Hub) Join() joinResponse {
	h.mu.Lock()
	defer h.mu.Unlock()

	player := NewPlayer()
	player.lastHeartbeat = time.Now()
	id := h.gameMap.SpawnPlayer(player)

	return joinResponse{
		ID:         id,
		TickRate:   tickRate,
		Difficulty: difficultyName(h.gameMap.GetDifficulty()),
	}
}

// Subscribe binds a websocket connection to a joined player and returns the
// one-time full-state frame the client needs before delta updates.
func (h *Hub) Subscribe(playerID EntityID, conn *websocket.Conn) (*subscriber, []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.gameMap.GetPlayers()[playerID]
	if !ok {
		return nil, nil, false
	}
	player.lastHeartbeat = time.Now()

	if existing, exists := h.subscribers[playerID]; exists {
		existing.conn.Close()
	}

	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub

	batch := &messageBatch{}
	h.gameMap.SendMessagesForNewlyConnectedPlayer(batch)
	data, err := batch.frame(time.Now())
	if err != nil {
		log.Printf("failed to marshal initial state for %d: %v", playerID, err)
		return sub, nil, true
	}
	return sub, data, true
}

// Disconnect removes a player and closes its connection.
func (h *Hub) Disconnect(playerID EntityID) {
	h.mu.Lock()
	sub, subOK := h.subscribers[playerID]
	if subOK {
		delete(h.subscribers, playerID)
	}
	h.gameMap.RemovePlayer(playerID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
}

// UpdateIntent stores the latest movement wish and view angle.
func (h *Hub) UpdateIntent(playerID EntityID, dx, dy, angle float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.gameMap.GetPlayers()[playerID]
	if !ok {
		return false
	}
	player.SetIntent(dx, dy)
	player.SetAngle(angle)
	return true
}

// UpdateHeartbeat records the most recent heartbeat time and RTT.
func (h *Hub) UpdateHeartbeat(playerID EntityID, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.gameMap.GetPlayers()[playerID]
	if !ok {
		return 0, false
	}

	player.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			player.lastRTT = rtt
		}
	}

	return player.lastRTT, true
}

// HandleShoot fires a rocket from the player's eye position.
func (h *Hub) HandleShoot(playerID EntityID, rocketType uint8, dx, dy, dz float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.gameMap.GetPlayers()[playerID]
	if !ok || player.Health() <= 0 {
		return false
	}

	length := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if length < 1e-9 {
		return false
	}
	dir := mgl64.Vec3{dx / length, dy / length, dz / length}

	pos := player.Position()
	from := mgl64.Vec3{pos.X(), pos.Y(), pos.Z() + playerHeight*0.75}
	h.gameMap.Shoot(playerID, rocketType, from, dir, time.Now())
	return true
}

// HandlePlantMine drops a mine at the player's feet.
func (h *Hub) HandlePlantMine(playerID EntityID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.gameMap.GetPlayers()[playerID]
	if !ok || player.Health() <= 0 {
		return false
	}
	h.gameMap.PlantMine(playerID, player.Position(), time.Now())
	return true
}

// advance runs one simulation step and returns the update frame plus any
// subscribers dropped for heartbeat timeouts.
func (h *Hub) advance(now time.Time, dt time.Duration) ([]byte, []*subscriber) {
	h.mu.Lock()

	toClose := make([]*subscriber, 0)
	for id, player := range h.gameMap.GetPlayers() {
		if now.Sub(player.lastHeartbeat) > disconnectAfter {
			if sub, ok := h.subscribers[id]; ok {
				toClose = append(toClose, sub)
				delete(h.subscribers, id)
			}
			h.gameMap.RemovePlayer(id)
			log.Printf("disconnecting %d due to heartbeat timeout", id)
		}
	}

	h.gameMap.Tick(now, dt)
	for id := range h.gameMap.GetPlayers() {
		h.gameMap.ProcessPlayerPosition(now, id)
	}

	batch := &messageBatch{}
	h.gameMap.SendUpdateMessages(batch)
	h.gameMap.ClearUpdateEvents()

	data, err := batch.frame(now)
	h.mu.Unlock()

	if err != nil {
		log.Printf("failed to marshal update frame: %v", err)
		return nil, toClose
	}
	return data, toClose
}

// broadcast pushes one frame to every subscriber, dropping the ones whose
// connection fails.
func (h *Hub) broadcast(data []byte) {
	if data == nil {
		return
	}

	h.mu.Lock()
	subs := make(map[EntityID]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			log.Printf("failed to send update to %d: %v", id, err)
			h.Disconnect(id)
		}
	}
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			if dt <= 0 {
				dt = time.Second / tickRate
			}
			last = now

			data, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcast(data)
		}
	}
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := make([]diagnosticsPlayer, 0, len(h.gameMap.GetPlayers()))
	for id, player := range h.gameMap.GetPlayers() {
		players = append(players, diagnosticsPlayer{
			ID:            id,
			LastHeartbeat: player.lastHeartbeat.UnixMilli(),
			RTTMillis:     player.lastRTT.Milliseconds(),
		})
	}
	return players
}
