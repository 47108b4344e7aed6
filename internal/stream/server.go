package stream

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Server broadcasts cloth frames to every connected websocket client. Publish
// is called from the simulation loop; each client connection runs on its own
// goroutine.
type Server struct {
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	stateMu  sync.RWMutex
	topology map[string][]byte
	latest   map[string][]byte
	order    []string

	commands chan Command
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		topology: make(map[string][]byte),
		latest:   make(map[string][]byte),
		commands: make(chan Command, 16),
	}
}

// Commands delivers client commands. The simulation loop drains it between
// ticks; commands beyond the buffer are dropped.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

// SetTopology registers a cloth's triangle list. Clients connecting later
// receive it before any frame.
func (s *Server) SetTopology(cloth string, indices []int) error {
	data, err := EncodeTopology(cloth, indices)
	if err != nil {
		return fmt.Errorf("stream: encode topology: %w", err)
	}
	s.stateMu.Lock()
	if _, ok := s.topology[cloth]; !ok {
		s.order = append(s.order, cloth)
	}
	s.topology[cloth] = data
	s.stateMu.Unlock()

	s.broadcast(data)
	return nil
}

// Publish encodes one frame and sends it to every client.
func (s *Server) Publish(cloth string, tick uint64, positions, normals []rl.Vector3) error {
	data, err := EncodeFrame(cloth, tick, positions, normals)
	if err != nil {
		return fmt.Errorf("stream: encode frame: %w", err)
	}
	s.stateMu.Lock()
	s.latest[cloth] = data
	s.stateMu.Unlock()

	s.broadcast(data)
	return nil
}

func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Stream: upgrade error:", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	if err := s.join(conn, connMutex); err != nil {
		log.Println("Stream: initial write error:", err)
		return
	}
	log.Printf("Stream: client %s connected", conn.RemoteAddr())

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		log.Printf("Stream: client %s disconnected", conn.RemoteAddr())
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("Stream: read error:", err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		var cmd Command
		if err := msgpack.Unmarshal(data, &cmd); err != nil {
			log.Println("Stream: bad command:", err)
			continue
		}
		select {
		case s.commands <- cmd:
		default:
			log.Println("Stream: command queue full, dropping")
		}
	}
}

// join sends the topology and latest frame of every cloth, then adds the
// client to the broadcast set. Holding the state lock throughout means a frame
// published concurrently is either in the snapshot or broadcast to the client.
func (s *Server) join(conn *websocket.Conn, connMutex *sync.Mutex) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	connMutex.Lock()
	defer connMutex.Unlock()
	for _, cloth := range s.order {
		if err := conn.WriteMessage(websocket.BinaryMessage, s.topology[cloth]); err != nil {
			return err
		}
		if frame, ok := s.latest[cloth]; ok {
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return err
			}
		}
	}

	s.clientsMu.Lock()
	s.clients[conn] = connMutex
	s.clientsMu.Unlock()
	return nil
}

func (s *Server) broadcast(data []byte) {
	s.clientsMu.RLock()
	var failed []*websocket.Conn
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteMessage(websocket.BinaryMessage, data)
		mutex.Unlock()
		if err != nil {
			log.Println("Stream: write error:", err)
			client.Close()
			failed = append(failed, client)
		}
	}
	s.clientsMu.RUnlock()

	// Remove failed clients
	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, client := range failed {
			delete(s.clients, client)
		}
		s.clientsMu.Unlock()
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client, mutex := range s.clients {
		mutex.Lock()
		client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		mutex.Unlock()
		client.Close()
		delete(s.clients, client)
	}
}
