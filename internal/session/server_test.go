package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/chainreaction/client/internal/game"
)

// fakeServer plays the game server's side of the protocol for one game,
// resolving moves with the local chain-reaction engine.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	mu      sync.Mutex
	board   *game.Board
	turn    int
	players []string
	conns   map[string]*serverConn
	dials   int
}

type serverConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *serverConn) write(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteJSON(v)
}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{t: t, conns: make(map[string]*serverConn)}
	fs.srv = httptest.NewServer(http.HandlerFunc(fs.serveWs))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http") + "/ws/game"
}

func (fs *fakeServer) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	pid := r.URL.Query().Get("player_id")
	sc := &serverConn{conn: conn}

	fs.mu.Lock()
	fs.conns[pid] = sc
	fs.dials++
	fs.mu.Unlock()

	defer conn.Close()
	for {
		var msg struct {
			Action  string          `json:"action"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		fs.handle(pid, sc, msg.Action, msg.Payload)
	}
}

func success(data map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"status": "success", "data": data}
}

func (fs *fakeServer) handle(pid string, sc *serverConn, action string, payload json.RawMessage) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch action {
	case "create_game":
		var p struct {
			Width  int `json:"board_width"`
			Height int `json:"board_height"`
		}
		json.Unmarshal(payload, &p)
		b, err := game.NewBoard(p.Width, p.Height)
		if err != nil {
			fs.t.Errorf("create_game: %v", err)
			return
		}
		fs.board = b
		fs.players = []string{pid}
		sc.write(success(map[string]interface{}{"response_type": "create_game", "game_id": "g-1", "game_code": "ABCD"}))

	case "start_game":
		sc.write(success(map[string]interface{}{"response_type": "start_game"}))
		fs.broadcastLocked(map[string]interface{}{"status": "game_started", "data": map[string]interface{}{"player_id": pid}})

	case "get_game_state":
		state, err := fs.board.Serialize()
		if err != nil {
			fs.t.Errorf("serialize: %v", err)
			return
		}
		sc.write(success(map[string]interface{}{
			"response_type":    "get_game_state",
			"game_id":          "g-1",
			"state":            state,
			"players_turn":     fs.players[fs.turn%len(fs.players)] == pid,
			"player_order_num": fs.orderLocked(pid),
			"num_players":      len(fs.players),
			"turn_count":       fs.turn,
		}))

	case "increment_cell":
		var p struct {
			Row int `json:"row"`
			Col int `json:"col"`
		}
		json.Unmarshal(payload, &p)
		actions, next, err := game.Simulate(fs.board, p.Row, p.Col, game.Color(fs.orderLocked(pid)))
		if err != nil {
			sc.write(map[string]interface{}{"status": "error", "code": 400, "message": err.Error()})
			return
		}
		fs.board = next
		fs.turn++
		sc.write(success(map[string]interface{}{"response_type": "increment_cell", "turn": fs.turn, "board_actions": actions}))
	}
}

func (fs *fakeServer) orderLocked(pid string) int {
	for i, p := range fs.players {
		if p == pid {
			return i
		}
	}
	return -1
}

func (fs *fakeServer) broadcastLocked(v interface{}) {
	for _, c := range fs.conns {
		c.write(v)
	}
}

func (fs *fakeServer) broadcast(v interface{}) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.broadcastLocked(v)
}

// drop closes every client socket from the server side.
func (fs *fakeServer) drop() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for pid, c := range fs.conns {
		c.conn.Close()
		delete(fs.conns, pid)
	}
}

func (fs *fakeServer) dialCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.dials
}
