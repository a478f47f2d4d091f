package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/prestonhale/battista/player"
	"github.com/prestonhale/battista/registry"
	"github.com/prestonhale/battista/simulation"
)

// Per-connection read/write/liveness timing.
const (
	writeWait      = 1 * time.Second
	maxMessageSize = 8192
	pingResolution = 20 * time.Second
	pongWait       = pingResolution * 4
)

// ErrPongDeadlineExceeded signals a client that stopped answering pings.
var ErrPongDeadlineExceeded = errors.New("wsapi: client disconnect, pong deadline exceeded")

// wsConn binds a registry client's outbound queue to an upgraded
// WebSocket connection and pumps frames in both directions, one goroutine
// group per connection supervised by errgroup.
type wsConn struct {
	conn         *websocket.Conn
	connectionID string
	userID       string
	outbound     *unboundedQueue
	requests     chan<- simulation.Request
	log          *logrus.Entry
}

func newWSConn(conn *websocket.Conn, c *registry.Client, requests chan<- simulation.Request, log *logrus.Entry) *wsConn {
	conn.SetReadLimit(maxMessageSize)
	return &wsConn{
		conn:         conn,
		connectionID: c.ConnectionID,
		userID:       c.UserID,
		outbound:     newUnboundedQueue(),
		requests:     requests,
		log:          log,
	}
}

// Outbound exposes the send side the registry binds to at upgrade time.
func (w *wsConn) Outbound() registry.OutboundSender { return w.outbound.inCh() }

// Serve runs the outbound queue relay, read pump, write pump, and
// ping/pong liveness check as one supervised group, returning when any of
// them errors or ctx is cancelled.
func (w *wsConn) Serve(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	// ReadMessage does not observe ctx: expiring the read deadline once the
	// group winds down unblocks readPump so Wait can return.
	go func() {
		<-groupCtx.Done()
		_ = w.conn.SetReadDeadline(time.Now())
	}()

	group.Go(func() error {
		w.outbound.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return w.readPump(groupCtx)
	})
	group.Go(func() error {
		return w.pingPong(groupCtx)
	})
	group.Go(func() error {
		return w.writePump(groupCtx)
	})

	return group.Wait()
}

// readPump ignores bare keepalive pings ("ping"/"ping\n") and otherwise
// parses the frame as Inputs and dispatches it as a PlayerInput request.
// Parse failures are logged and skipped, not fatal.
func (w *wsConn) readPump(ctx context.Context) error {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return err
		}

		switch string(data) {
		case "ping", "ping\n":
			continue
		}

		var in player.Inputs
		if err := json.Unmarshal(data, &in); err != nil {
			w.log.WithError(err).WithField("connection_id", w.connectionID).Warn("wsapi: malformed input frame")
			continue
		}

		req := simulation.NewPlayerInput(w.userID, in)
		select {
		case w.requests <- req:
		case <-ctx.Done():
			return nil
		}
	}
}

// writePump forwards queued outbound payloads onto the socket.
func (w *wsConn) writePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-w.outbound.outCh():
			if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return err
			}
		}
	}
}

// pingPong drives periodic pings off a channerics ticker; a pong handler
// feeds a channel this loop selects on to reset the liveness deadline.
func (w *wsConn) pingPong(ctx context.Context) error {
	pong := make(chan struct{})
	defer close(pong)
	w.conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	})

	ticker := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}
