package hub

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/chat-relay/peer"
)

// Handler routes /ws to the websocket transport and the /q/ status queries
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/q/online", h.httpQueryOnlineHandler)
	mux.HandleFunc("/q/rooms", h.httpQueryRoomsHandler)
	return mux
}

// ServeWS upgrades the request and runs a session on it
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("hub: upgrade:", err)
		return
	}
	h.ServeConn(peer.NewWSConn(conn, h.peerConfig))
}

type onlineResp struct {
	User     string `json:"user"`
	Online   bool   `json:"online"`
	RealName string `json:"realname,omitempty"`
}

// 查询用户是否在线 /q/online?user=<name>
func (h *Hub) httpQueryOnlineHandler(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}
	resp := onlineResp{User: user}
	if m, ok := h.active.Find(user); ok {
		resp.Online = true
		resp.RealName = m.User.RealName
	}
	writeJSON(w, resp)
}

// 房间列表 /q/rooms
func (h *Hub) httpQueryRoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.rooms.Rooms())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("hub: http:", err)
	}
}
