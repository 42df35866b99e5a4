// Package stub runs an in-process orchestrator endpoint for tests.
package stub

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/voidshard/pms/pkg/api/common"
)

// Handler turns one raw command message into one raw reply.
type Handler func(msg []byte) string

// Server accepts websocket connections on the orchestrator endpoint & answers each
// message with whatever the Handler returns.
type Server struct {
	handler  Handler
	upgrader websocket.Upgrader
	srv      *httptest.Server

	lock     sync.Mutex
	socks    map[*websocket.Conn]bool
	received [][]byte
}

// NewServer starts a server listening on a random local port.
func NewServer(h Handler) *Server {
	s := &Server{
		handler: h,
		socks:   map[*websocket.Conn]bool{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.HandleFunc(common.ENDPOINT, s.serve)

	s.srv = httptest.NewServer(router)
	return s
}

// Address returns host:port of the server.
func (s *Server) Address() string {
	return s.srv.Listener.Addr().String()
}

// Received returns every message received so far, in order.
func (s *Server) Received() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([][]byte, len(s.received))
	copy(out, s.received)
	return out
}

// Drop closes every open socket without a close handshake, as a crashed server would.
func (s *Server) Drop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for sock := range s.socks {
		sock.UnderlyingConn().Close()
	}
}

// Close drops all sockets & stops the server.
func (s *Server) Close() {
	s.Drop()
	s.srv.Close()
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.lock.Lock()
	s.socks[sock] = true
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		delete(s.socks, sock)
		s.lock.Unlock()
		sock.Close()
	}()

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			return
		}

		s.lock.Lock()
		s.received = append(s.received, data)
		s.lock.Unlock()

		err = sock.WriteMessage(websocket.TextMessage, []byte(s.handler(data)))
		if err != nil {
			return
		}
	}
}
