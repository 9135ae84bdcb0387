package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/snrgy-studios/glorb-animator/internal/geometry"
	"github.com/snrgy-studios/glorb-animator/internal/palette"
	"github.com/snrgy-studios/glorb-animator/internal/playback"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/viewproto"
)

// Controller is the playback surface exposed to viewers.
type Controller interface {
	Seek(index int) error
	Pause()
	Resume()
	Paused() bool
	Stats() playback.Stats
}

type Options struct {
	RunID    string
	Seed     int64
	Playback viewproto.PlaybackInfo
	Palette  palette.Palette
	// AllowRemote accepts non-loopback viewers.
	AllowRemote bool
}

type Server struct {
	graph *geometry.Graph
	ctl   Controller
	opts  Options
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[string]*client
	last    *sim.Frame
	conns   map[*websocket.Conn]struct{}
	closing bool
	active  sync.WaitGroup
}

type client struct {
	colors bool
	out    chan []byte
}

func NewServer(g *geometry.Graph, ctl Controller, opts Options, logger *log.Logger) *Server {
	return &Server{
		graph: g,
		ctl:   ctl,
		opts:  opts,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[string]*client{},
		conns:   map[*websocket.Conn]struct{}{},
	}
}

// Close disconnects every viewer and waits for their handlers to return.
// Upgrades attempted afterwards are closed immediately.
func (s *Server) Close() {
	s.mu.Lock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.active.Wait()
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.active.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.active.Done()
}

// Handler mounts the bootstrap and websocket endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/v1/ws", s.WSHandler())
	return mux
}

func (s *Server) allowed(r *http.Request) bool {
	return s.opts.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		resp := viewproto.BootstrapResponse{
			ProtocolVersion: viewproto.Version,
			RunID:           s.opts.RunID,
			Seed:            s.opts.Seed,
			Playback:        s.opts.Playback,
			Geometry:        viewproto.NewGeometry(s.graph),
			Palette: viewproto.PaletteInfo{
				Background: s.opts.Palette.Background.Clamped().Hex(),
				Food:       s.opts.Palette.Food.Clamped().Hex(),
			},
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// Present fans a presented frame out to every viewer. It never blocks; a
// viewer whose queue is full misses the frame.
func (s *Server) Present(index int, f sim.Frame) {
	paused := s.ctl.Paused()
	var withColors, bare []byte

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &f
	for _, c := range s.clients {
		var b []byte
		if c.colors {
			if withColors == nil {
				withColors = s.encodeFrame(f, true, paused)
			}
			b = withColors
		} else {
			if bare == nil {
				bare = s.encodeFrame(f, false, paused)
			}
			b = bare
		}
		if b == nil {
			continue
		}
		select {
		case c.out <- b:
		default:
		}
	}
}

func (s *Server) encodeFrame(f sim.Frame, colors, paused bool) []byte {
	b, err := json.Marshal(viewproto.NewFrame(f, s.graph.NumFaces(), s.opts.Palette, colors, paused))
	if err != nil {
		if s.log != nil {
			s.log.Printf("encode frame %d: %v", f.Index, err)
		}
		return nil
	}
	return b
}

func (s *Server) join(sid string, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[sid] = c
	if s.last != nil {
		if b := s.encodeFrame(*s.last, c.colors, s.ctl.Paused()); b != nil {
			c.out <- b
		}
	}
}

func (s *Server) leave(sid string) {
	s.mu.Lock()
	delete(s.clients, sid)
	s.mu.Unlock()
}

// Viewers returns the number of connected viewers.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		defer s.untrack(conn)
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub viewproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != viewproto.TypeSubscribe || sub.ProtocolVersion != viewproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("V%d", s.nextID.Add(1))
		c := &client{colors: sub.Colors == nil || *sub.Colors, out: make(chan []byte, 32)}
		s.join(sid, c)
		defer s.leave(sid)
		if s.log != nil {
			s.log.Printf("viewer %s joined from %s", sid, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: playback controls.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var ctl viewproto.ControlMsg
			if err := json.Unmarshal(msg, &ctl); err != nil {
				continue
			}
			if ctl.ProtocolVersion != viewproto.Version {
				continue
			}
			status := s.control(ctl)
			b, err := json.Marshal(status)
			if err != nil {
				continue
			}
			select {
			case c.out <- b:
			default:
				// Drop replies under load; the next frame carries the state.
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		if s.log != nil {
			s.log.Printf("viewer %s left", sid)
		}
	}
}

func (s *Server) control(msg viewproto.ControlMsg) viewproto.StatusMsg {
	var errText string
	switch msg.Type {
	case viewproto.TypeSeek:
		if msg.Index == nil {
			errText = "SEEK requires index"
		} else if err := s.ctl.Seek(*msg.Index); err != nil {
			errText = err.Error()
		}
	case viewproto.TypePause:
		s.ctl.Pause()
	case viewproto.TypeResume:
		s.ctl.Resume()
	default:
		errText = fmt.Sprintf("unknown message type %q", msg.Type)
	}
	st := s.ctl.Stats()
	return viewproto.StatusMsg{
		Type:            viewproto.TypeStatus,
		ProtocolVersion: viewproto.Version,
		Paused:          s.ctl.Paused(),
		Cursor:          st.Cursor,
		Highest:         st.Highest,
		Error:           errText,
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
