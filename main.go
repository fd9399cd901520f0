package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"stonefall/server/logging"
)

type clientMessage struct {
	Type   string  `json:"type"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	DZ     float64 `json:"dz"`
	Angle  float64 `json:"angle"`
	Rocket uint8   `json:"rocket"`
	SentAt int64   `json:"sentAt"`
}

type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

func main() {
	cfg := loadServerConfig()
	publisher := logging.NewConsolePublisher(os.Stderr)

	data, resources := buildDemoLevel()
	hub := newHub(cfg, data, resources, publisher)

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	http.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string              `json:"status"`
			ServerTime int64               `json:"serverTime"`
			Players    []diagnosticsPlayer `json:"players"`
			TickRate   int                 `json:"tickRate"`
			Heartbeat  int64               `json:"heartbeatMillis"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Players:    hub.DiagnosticsSnapshot(),
			TickRate:   tickRate,
			Heartbeat:  heartbeatInterval.Milliseconds(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	http.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		join := hub.Join()
		data, err := json.Marshal(join)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		rawID := r.URL.Query().Get("id")
		parsed, err := strconv.ParseUint(rawID, 10, 16)
		if err != nil {
			http.Error(w, "missing or invalid id", http.StatusBadRequest)
			return
		}
		playerID := EntityID(parsed)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %d: %v", playerID, err)
			return
		}

		sub, initial, ok := hub.Subscribe(playerID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		if initial != nil {
			if err := sub.write(initial); err != nil {
				log.Printf("failed to send initial state to %d: %v", playerID, err)
				hub.Disconnect(playerID)
				return
			}
		}

		go readLoop(hub, playerID, sub)
	})

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func readLoop(hub *Hub, playerID EntityID, sub *subscriber) {
	defer hub.Disconnect(playerID)

	for {
		_, raw, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("bad message from %d: %v", playerID, err)
			continue
		}

		switch msg.Type {
		case "input":
			hub.UpdateIntent(playerID, msg.DX, msg.DY, msg.Angle)
		case "shoot":
			hub.HandleShoot(playerID, msg.Rocket, msg.DX, msg.DY, msg.DZ)
		case "mine":
			hub.HandlePlantMine(playerID)
		case "heartbeat":
			now := time.Now()
			rtt, ok := hub.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				return
			}
			reply := heartbeatMessage{
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			data, err := json.Marshal(reply)
			if err != nil {
				log.Printf("failed to marshal heartbeat for %d: %v", playerID, err)
				continue
			}
			if err := sub.write(data); err != nil {
				return
			}
		}
	}
}
