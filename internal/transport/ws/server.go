package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kushgupta-hiver/tilematch/internal/engine"
	"github.com/kushgupta-hiver/tilematch/internal/proto"
	"github.com/kushgupta-hiver/tilematch/internal/session"
	"nhooyr.io/websocket"
)

// Config tunes new games and connections.
type Config struct {
	Rules engine.Rules
	// Seed 0 gives every game a random board.
	Seed uint64

	OriginPatterns     []string
	InsecureSkipVerify bool
	PingInterval       time.Duration
	WriteTimeout       time.Duration
	SendBuffer         int

	Logger *slog.Logger
}

// Server is an HTTP handler that upgrades to WebSocket. /ws starts a new
// game owned by the connection; /ws/<id> attaches to a live one.
type Server interface {
	http.Handler
}

type server struct {
	cfg Config
	reg *session.Registry
	log *slog.Logger
}

func NewServer(cfg Config, reg *session.Registry) Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	return &server{cfg: cfg, reg: reg, log: cfg.Logger}
}

// client is one websocket connection bound to one session.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
	log    *slog.Logger
}

// push queues v for the writer. A client too slow to drain its buffer is
// disconnected rather than silently missing events.
func (c *client) push(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error("marshal", "err", err)
		return
	}
	select {
	case c.send <- b:
	default:
		c.log.Warn("send buffer full, dropping client")
		c.cancel()
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, attach := gameID(r.URL.Path)

	var sess *session.Session
	if attach {
		got, ok := s.reg.Get(id)
		if !ok {
			http.Error(w, "unknown game", http.StatusNotFound)
			return
		}
		sess = got
	} else {
		created, err := s.reg.Create(r.Context(), session.Options{Rules: s.cfg.Rules, Seed: s.cfg.Seed, Logger: s.log})
		if err != nil {
			s.log.Error("create game", "err", err)
			http.Error(w, "cannot create game", http.StatusInternalServerError)
			return
		}
		sess = created
		defer s.reg.Remove(sess.ID())
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.cfg.OriginPatterns,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	})
	if err != nil {
		s.log.Warn("accept", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl := &client{
		conn:   conn,
		send:   make(chan []byte, s.cfg.SendBuffer),
		cancel: cancel,
		log:    s.log.With("session", sess.ID(), "remote", r.RemoteAddr),
	}
	cl.log.Info("client connected", "attach", attach)

	unsubscribe := sess.Subscribe(func(ev engine.Event) {
		if msg, ok := proto.FromEvent(ev); ok {
			cl.push(msg)
		}
	})
	defer unsubscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, cl)
	}()

	// the owner leaving closes the session for every attached view
	go func() {
		select {
		case <-sess.Done():
			cl.log.Info("game closed")
			cancel()
		case <-ctx.Done():
		}
	}()

	cl.push(proto.Assigned{Type: "assigned", Game: sess.ID()})
	cl.push(proto.FromSnapshot(sess.Snapshot()))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				cl.log.Debug("read", "err", err)
			}
			break
		}
		var m proto.ClientMsg
		if err := json.Unmarshal(data, &m); err != nil {
			cl.push(proto.Error{Type: "error", Code: proto.CodeBadRequest, Detail: "invalid JSON"})
			continue
		}
		s.handle(ctx, sess, cl, m)
	}

	cancel()
	<-writerDone
	select {
	case <-sess.Done():
		_ = conn.Close(websocket.StatusGoingAway, "game closed")
	default:
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
	cl.log.Info("client disconnected")
}

func (s *server) handle(ctx context.Context, sess *session.Session, cl *client, m proto.ClientMsg) {
	switch m.Type {
	case "move":
		if m.From == nil || m.To == nil {
			cl.push(proto.Error{Type: "error", Code: proto.CodeBadRequest, Detail: "move needs from and to"})
			return
		}
		res, err := sess.Submit(ctx, session.Move{From: *m.From, To: *m.To, MsgID: m.MsgID})
		if err != nil {
			cl.push(proto.ErrorFor(err))
			return
		}
		cl.push(proto.Moved{
			Type:         "moved",
			MsgID:        m.MsgID,
			Accepted:     res.Accepted,
			Matched:      res.Matched,
			TotalCleared: res.Settle.TotalCleared,
			Cascades:     res.Settle.Cascades,
		})

	case "restart":
		if _, err := sess.Restart(ctx); err != nil {
			cl.push(proto.ErrorFor(err))
		}

	case "ping":
		cl.push(proto.Pong{Type: "pong"})

	default:
		cl.push(proto.Error{Type: "error", Code: proto.CodeBadRequest, Detail: "unknown type " + m.Type})
	}
}

func (s *server) writeLoop(ctx context.Context, cl *client) {
	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-cl.send:
			wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
			err := cl.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				cl.cancel()
				return
			}
		case <-ping.C:
			if err := cl.conn.Ping(ctx); err != nil {
				cl.cancel()
				return
			}
		}
	}
}

// gameID extracts <id> from /ws/<id>.
func gameID(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/ws")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", false
	}
	return rest, true
}
