package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.V(2).InfoS("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	s.addClient(c)
	defer s.removeClient(c)

	// Send initial state
	if err := c.send(snapshotMessage(s.app.Current())); err != nil {
		return
	}

	// Drain client frames until the connection closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func snapshotMessage(snap *models.Snapshot) []byte {
	data, err := json.Marshal(pushMessage{Type: "snapshot", Snapshot: snap})
	if err != nil {
		klog.ErrorS(err, "Failed to encode snapshot")
		return nil
	}
	return data
}

func (c *client) send(data []byte) error {
	if data == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = true
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *Server) broadcast(snap *models.Snapshot) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	data := snapshotMessage(snap)
	for _, c := range clients {
		if err := c.send(data); err != nil {
			klog.V(2).InfoS("Dropping websocket client", "err", err)
			c.conn.Close()
			s.removeClient(c)
		}
	}
}
