package realtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	socketio "github.com/googollee/go-socket.io"
	"github.com/mauv0809/matchqueue/internal/auth"
	"github.com/mauv0809/matchqueue/internal/notifier"
)

const namespace = "/"

// broadcaster is the part of the socket.io server used to push events.
type broadcaster interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// identifier resolves a connecting socket to a user.
type identifier interface {
	Enabled() bool
	UserFromToken(raw string) (string, error)
}

var _ notifier.Notifier = (*Notifier)(nil)

// Notifier pushes lifecycle events to connected players. Every socket joins
// the room of the user it authenticated as, so one user may have several
// connected clients.
type Notifier struct {
	server   *socketio.Server
	rooms    broadcaster
	identity identifier
}

// New creates the socket.io server and registers its handlers.
func New(verifier *auth.Verifier) *Notifier {
	server := socketio.NewServer(nil)
	n := &Notifier{
		server:   server,
		rooms:    server,
		identity: verifier,
	}

	server.OnConnect(namespace, n.handleConnect)
	server.OnError(namespace, func(conn socketio.Conn, err error) {
		log.Warn("Socket error", "error", err)
	})
	server.OnDisconnect(namespace, func(conn socketio.Conn, reason string) {
		log.Debug("Socket disconnected", "socketID", conn.ID(), "reason", reason)
	})
	return n
}

// UserRoom is the room a user's sockets join.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Handler serves the socket.io transport.
func (n *Notifier) Handler() http.Handler {
	return n.server
}

// Serve runs the socket.io event loop until Close is called.
func (n *Notifier) Serve() {
	if err := n.server.Serve(); err != nil {
		log.Error("Socket server stopped", "error", err)
	}
}

// Close shuts down the socket.io server.
func (n *Notifier) Close() error {
	return n.server.Close()
}

// Notify emits event to the room of every user.
func (n *Notifier) Notify(ctx context.Context, userIDs []string, event string, payload any) error {
	for _, userID := range userIDs {
		if !n.rooms.BroadcastToRoom(namespace, UserRoom(userID), event, payload) {
			return fmt.Errorf("socket namespace %q is not registered", namespace)
		}
	}
	log.Debug("Emitted realtime event", "event", event, "users", userIDs)
	return nil
}

func (n *Notifier) handleConnect(conn socketio.Conn) error {
	userID, err := n.userOf(conn)
	if err != nil {
		log.Warn("Rejected socket connection", "socketID", conn.ID(), "error", err)
		return err
	}
	conn.SetContext(userID)
	conn.Join(UserRoom(userID))
	log.Info("Socket connected", "socketID", conn.ID(), "userID", userID)
	return nil
}

func (n *Notifier) userOf(conn socketio.Conn) (string, error) {
	u := conn.URL()
	query := u.Query()
	header := conn.RemoteHeader()

	if n.identity != nil && n.identity.Enabled() {
		token := query.Get("token")
		if token == "" {
			token = strings.TrimPrefix(header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			return "", auth.ErrNoIdentity
		}
		return n.identity.UserFromToken(token)
	}

	if id := query.Get("userId"); id != "" {
		return id, nil
	}
	if id := header.Get(auth.UserHeader); id != "" {
		return id, nil
	}
	return "", auth.ErrNoIdentity
}
