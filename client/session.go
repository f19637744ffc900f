package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"roomchat/proto"
)

// State tracks a session's connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateError is the transient state between a transport failure and the
	// final transition to StateDisconnected.
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "disconnected"
	}
}

// Callbacks are the push notifications a session emits. All of them may be
// nil. They fire zero or more times between Connect and Disconnect, never
// after Disconnect completes.
type Callbacks struct {
	// OnMessage fires for every envelope delivered on the room's broadcast
	// topic, the session's own messages included.
	OnMessage func(proto.Envelope)
	// OnOccupancy fires when the room's live subscriber count changes.
	OnOccupancy func(int)
	// OnError fires for broker error frames and for the terminal transport
	// failure of the session.
	OnError func(error)
}

// Session is one client connection to the broker. A session is single-use:
// once disconnected or failed it stays disconnected, and a new Connect call
// produces a fresh session.
type Session struct {
	username string
	room     string
	cb       Callbacks
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	wmu sync.Mutex // serializes websocket writes

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	feed  []proto.Envelope
}

// dial opens a session: it connects the transport, subscribes to the room's
// occupancy and broadcast topics, and announces the user with a JOIN
// envelope. The occupancy subscription goes first so the session observes
// the count update caused by its own join.
func dial(ctx context.Context, url, username, room string, cb Callbacks, logger *zerolog.Logger, httpc *http.Client) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if room == "" {
		room = proto.DefaultRoom
	}

	s := &Session{
		username: username,
		room:     room,
		cb:       cb,
		log:      logger,
		state:    StateConnecting,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: httpc})
	if err != nil {
		s.state = StateDisconnected
		s.cancel()
		return nil, &TransportError{Op: "dial", Err: err}
	}
	s.conn = conn

	joinBody, err := proto.EncodeEnvelope(proto.NewPresence(username, proto.TypeJoin))
	if err != nil {
		// Unreachable for a validated username, but do not leak the conn.
		conn.Close(websocket.StatusInternalError, "bad join envelope")
		s.state = StateDisconnected
		s.cancel()
		return nil, err
	}

	setup := []proto.Inbound{
		{Type: proto.InboundTypeSubscribe, Topic: proto.OccupancyTopic(room).String()},
		{Type: proto.InboundTypeSubscribe, Topic: proto.BroadcastTopic(room).String()},
		{Type: proto.InboundTypePublish, Topic: proto.BroadcastTopic(room).String(), Body: string(joinBody)},
	}
	// Setup frames go out under the caller's context so a broker that
	// accepts the socket but stalls cannot hang Connect past its deadline.
	for _, frame := range setup {
		if err := s.writeCtx(ctx, frame); err != nil {
			conn.Close(websocket.StatusInternalError, "setup failed")
			s.state = StateDisconnected
			s.cancel()
			return nil, &TransportError{Op: "setup", Err: err}
		}
	}

	s.state = StateConnected
	go s.readLoop()
	return s, nil
}

// Send publishes a chat message. It is a silent no-op when the session is
// not connected or the trimmed content is empty, mirroring best-effort send
// semantics.
func (s *Session) Send(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	if s.State() != StateConnected {
		return
	}

	body, err := proto.EncodeEnvelope(proto.NewChat(s.username, content))
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping unsendable message")
		return
	}
	frame := proto.Inbound{
		Type:  proto.InboundTypePublish,
		Topic: proto.BroadcastTopic(s.room).String(),
		Body:  string(body),
	}
	if err := s.write(frame); err != nil {
		s.fail(&TransportError{Op: "publish", Err: err})
	}
}

// Disconnect announces the user's departure with a LEAVE envelope, closes
// the transport, and transitions to StateDisconnected. Idempotent: calling
// it on an already disconnected session does nothing. No callbacks fire
// after it returns.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	wasConnected := s.state == StateConnected
	s.state = StateDisconnected
	conn := s.conn
	s.mu.Unlock()

	if wasConnected {
		if body, err := proto.EncodeEnvelope(proto.NewPresence(s.username, proto.TypeLeave)); err == nil {
			// Best effort; the broker updates occupancy on the transport
			// close regardless.
			_ = s.write(proto.Inbound{
				Type:  proto.InboundTypePublish,
				Topic: proto.BroadcastTopic(s.room).String(),
				Body:  string(body),
			})
		}
	}

	s.cancel()
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

// State returns the session's current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Username returns the name this session joined with.
func (s *Session) Username() string { return s.username }

// Room returns the room id this session is scoped to.
func (s *Session) Room() string { return s.room }

// Messages returns a snapshot of the session's feed: every envelope
// delivered so far, in arrival order.
func (s *Session) Messages() []proto.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]proto.Envelope, len(s.feed))
	copy(out, s.feed)
	return out
}

func (s *Session) write(frame proto.Inbound) error {
	return s.writeCtx(s.ctx, frame)
}

func (s *Session) writeCtx(ctx context.Context, frame proto.Inbound) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return wsjson.Write(ctx, s.conn, frame)
}

func (s *Session) readLoop() {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(s.ctx, s.conn, &outbound); err != nil {
			s.fail(&TransportError{Op: "read", Err: err})
			return
		}
		s.handle(outbound)
	}
}

func (s *Session) handle(outbound proto.Outbound) {
	switch outbound.Type {
	case proto.OutboundTypeError:
		if outbound.Error == nil || s.State() != StateConnected {
			return
		}
		s.log.Warn().Str("code", outbound.Error.Code).Str("msg", outbound.Error.Msg).Msg("broker error")
		if s.cb.OnError != nil {
			s.cb.OnError(fmt.Errorf("broker: %s: %s", outbound.Error.Code, outbound.Error.Msg))
		}
	case proto.OutboundTypeMessage:
		topic, err := proto.ParseTopic(outbound.Topic)
		if err != nil {
			s.log.Debug().Str("topic", outbound.Topic).Msg("dropping frame on unknown topic")
			return
		}
		switch topic.Kind {
		case proto.KindOccupancy:
			n, err := strconv.Atoi(strings.TrimSpace(outbound.Body))
			if err != nil {
				s.log.Warn().Str("body", outbound.Body).Msg("dropping non-numeric occupancy payload")
				return
			}
			if s.State() == StateConnected && s.cb.OnOccupancy != nil {
				s.cb.OnOccupancy(n)
			}
		case proto.KindBroadcast:
			env, err := proto.DecodeEnvelope([]byte(outbound.Body))
			if err != nil {
				s.log.Warn().Err(err).Msg("dropping undecodable payload")
				return
			}
			s.mu.Lock()
			if s.state != StateConnected {
				s.mu.Unlock()
				return
			}
			s.feed = append(s.feed, env)
			s.mu.Unlock()
			if s.cb.OnMessage != nil {
				s.cb.OnMessage(env)
			}
		}
	}
}

// fail is the transport failure path: Connected|Connecting → Error →
// Disconnected. The session does not reconnect.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state != StateConnected && s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = StateError
	conn := s.conn
	s.mu.Unlock()

	s.log.Warn().Err(err).Msg("session transport failed")
	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		conn.Close(websocket.StatusInternalError, "transport failure")
	}
}
