package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voidshard/pms/pkg/errors"
)

const (
	// closeGrace is how long we give the close frame to go out before dropping the socket
	closeGrace = time.Second
)

// State of a connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type request struct {
	msg   []byte
	reply chan *response
}

type response struct {
	data []byte
	err  error
}

// Conn is a single persistent websocket to the orchestrator.
//
// The protocol is strictly one request, one reply. A single worker routine owns the
// socket; callers hand it requests & wait for the answer, so concurrent callers are
// served one at a time in the order the worker picks them up.
type Conn struct {
	opts *Options
	log  *zap.Logger

	sock *websocket.Conn

	lock  sync.Mutex
	state State

	work chan *request
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the orchestrator, returning once the handshake is complete.
//
// The caller must Close() the returned Conn.
func Dial(ctx context.Context, opts *Options) (*Conn, error) {
	cfg := Options{}
	if opts != nil {
		cfg = *opts
	}
	cfg.SetDefaults()

	c := &Conn{
		opts:  &cfg,
		log:   cfg.Logger.With(zap.String("component", "conn"), zap.String("address", cfg.Address)),
		state: Disconnected,
		work:  make(chan *request),
		done:  make(chan struct{}),
	}

	err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	go c.run()
	return c, nil
}

func (c *Conn) connect(ctx context.Context) error {
	c.setState(Connecting)

	addr := c.opts.URL().String()
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opts.HandshakeTimeout,
		TLSClientConfig:  c.opts.TLSConfig,
	}

	sock, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	// job documents & query results can be large and the server can be slow,
	// so: no size limit & no deadlines
	sock.SetReadLimit(0)
	sock.SetReadDeadline(time.Time{})
	sock.SetWriteDeadline(time.Time{})

	c.sock = sock
	c.setState(Connected)
	c.log.Debug("connected", zap.String("url", addr))
	return nil
}

// State returns the current state of the connection.
func (c *Conn) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Conn) setState(s State) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state = s
}

// SendAndReceive JSON encodes msg, sends it & blocks until the single reply arrives.
//
// There is no timeout. Transport errors are returned as is and leave the
// connection Closed; after that (or after Close()) every call returns ErrConnClosed.
func (c *Conn) SendAndReceive(msg interface{}) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	req := &request{msg: data, reply: make(chan *response, 1)}
	select {
	case <-c.done:
		return "", errors.ErrConnClosed
	case c.work <- req:
	}

	// the worker answers every request it accepts
	resp := <-req.reply
	return string(resp.data), resp.err
}

// Close the connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.shutdown()
	return c.closeErr
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		c.setState(Closed)
		close(c.done)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))

		c.closeErr = c.sock.Close()
		c.log.Debug("closed")
	})
}

func (c *Conn) run() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.work:
			select {
			case <-c.done:
				req.reply <- &response{err: errors.ErrConnClosed}
				continue
			default:
			}
			req.reply <- c.roundTrip(req)
		}
	}
}

func (c *Conn) roundTrip(req *request) *response {
	log := c.log.With(zap.String("request_id", uuid.NewString()))
	log.Debug("sending message", zap.Int("bytes", len(req.msg)))

	err := c.sock.WriteMessage(websocket.TextMessage, req.msg)
	if err != nil {
		c.fail(log, err)
		return &response{err: err}
	}

	_, data, err := c.sock.ReadMessage()
	if err != nil {
		c.fail(log, err)
		return &response{err: err}
	}

	log.Debug("received reply", zap.Int("bytes", len(data)))
	return &response{data: data}
}

// fail drops a connection whose transport has broken. We don't reconnect; that's up to the caller.
func (c *Conn) fail(log *zap.Logger, err error) {
	log.Warn("transport error, closing connection", zap.Error(err))
	c.shutdown()
}
