package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/protocol"
)

// Hub is the session registry and event relay. It owns the set of live
// connections and mediates all cross-client event flow.
//
// All registry state is owned by the Run loop: connects, disconnects,
// inbound note events and snapshot requests are funneled through
// channels and handled to completion one at a time, so the client map
// needs no locking and every mutation plus its resulting broadcast is
// atomic from the connections' point of view.
type Hub struct {
	logger *zap.Logger

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	snapshots  chan chan []protocol.UserInfo

	// Cross-instance bridge, optional. Events arriving from other
	// instances are injected through bridged.
	bridge     Bridge
	instanceID string
	bridged    chan protocol.Envelope
}

// inboundEvent pairs a decoded frame with the connection it came from.
type inboundEvent struct {
	sender *Client
	env    protocol.Envelope
}

// NewHub constructs a hub. Pass zap.NewNop() to silence it.
func NewHub(logger *zap.Logger, instanceID string) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent, 64),
		snapshots:  make(chan chan []protocol.UserInfo),
		instanceID: instanceID,
		bridged:    make(chan protocol.Envelope, 64),
	}
}

// AttachBridge connects the hub to a cross-instance event bridge and
// starts consuming frames published by other instances. Must be called
// before Run.
func (h *Hub) AttachBridge(ctx context.Context, b Bridge) {
	h.bridge = b
	go func() {
		if err := b.Subscribe(ctx, h.deliverBridged); err != nil && ctx.Err() == nil {
			h.logger.Warn("bridge subscription ended", zap.Error(err))
		}
	}()
}

// Run processes registry events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.relay(in.sender, in.env)
		case env := <-h.bridged:
			if h.broadcast(env, nil) {
				h.broadcastPresence()
			}
		case reply := <-h.snapshots:
			reply <- h.roster()
		case <-ctx.Done():
			for _, client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[string]*Client)
			return
		}
	}
}

// Snapshot returns the current roster. Safe to call from any
// goroutine; the Run loop services the request.
func (h *Hub) Snapshot(ctx context.Context) []protocol.UserInfo {
	reply := make(chan []protocol.UserInfo, 1)
	select {
	case h.snapshots <- reply:
		return <-reply
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) addClient(client *Client) {
	client.Color = protocol.RandomColor()
	client.ConnectedAt = time.Now()
	h.clients[client.ID] = client

	h.logger.Info("client connected",
		zap.String("id", client.ID),
		zap.String("color", client.Color),
		zap.Int("online", len(h.clients)))

	client.enqueue(protocol.MustEnvelope(protocol.EventUserInfo, protocol.UserInfo{
		ID:    client.ID,
		Color: client.Color,
	}))
	h.broadcastPresence()
}

func (h *Hub) removeClient(client *Client) {
	// Defensive no-op when the id is already gone, e.g. a second
	// unregister racing the read and write pumps.
	existing, ok := h.clients[client.ID]
	if !ok || existing != client {
		return
	}
	delete(h.clients, client.ID)
	close(client.send)

	h.logger.Info("client disconnected",
		zap.String("id", client.ID),
		zap.Int("online", len(h.clients)))

	h.broadcastPresence()
}

// relay forwards a press or release from one connection to every other
// connection, tagged with the sender's identity. The hub is a pure
// fan-out bus: it does not track which notes are sounding.
func (h *Hub) relay(sender *Client, env protocol.Envelope) {
	// The sender's registry entry can be gone if the disconnect was
	// processed before a still-queued event. Forward anyway with the
	// color left empty.
	var color string
	if entry, ok := h.clients[sender.ID]; ok {
		color = entry.Color
	}

	var out protocol.Envelope
	switch env.Event {
	case protocol.EventNotePress:
		var press protocol.NotePress
		if err := json.Unmarshal(env.Data, &press); err != nil {
			h.logger.Warn("dropping malformed notePress",
				zap.String("id", sender.ID), zap.Error(err))
			return
		}
		out = protocol.MustEnvelope(protocol.EventRemoteNotePress, protocol.RemoteNotePress{
			Note:     press.Note,
			Octave:   press.Octave,
			Velocity: press.Velocity,
			UserID:   sender.ID,
			Color:    color,
		})
	case protocol.EventNoteRelease:
		var release protocol.NoteRelease
		if err := json.Unmarshal(env.Data, &release); err != nil {
			h.logger.Warn("dropping malformed noteRelease",
				zap.String("id", sender.ID), zap.Error(err))
			return
		}
		out = protocol.MustEnvelope(protocol.EventRemoteNoteRelease, protocol.RemoteNoteRelease{
			Note:   release.Note,
			Octave: release.Octave,
			UserID: sender.ID,
		})
	default:
		h.logger.Debug("ignoring unknown event",
			zap.String("id", sender.ID), zap.String("event", env.Event))
		return
	}

	if h.broadcast(out, sender) {
		h.broadcastPresence()
	}
	h.publishToBridge(out)
}

// broadcast sends env to every client except skip. A client whose send
// buffer is full is dropped on the spot, the same way a concurrently
// closed connection would be. It reports whether any client was
// dropped; the caller owes the survivors a fresh presence snapshot.
func (h *Hub) broadcast(env protocol.Envelope, skip *Client) (dropped bool) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("encode broadcast", zap.Error(err))
		return false
	}
	for id, client := range h.clients {
		if client == skip {
			continue
		}
		select {
		case client.send <- data:
		default:
			delete(h.clients, id)
			close(client.send)
			dropped = true
			h.logger.Warn("dropping slow client", zap.String("id", id))
		}
	}
	return dropped
}

// broadcastPresence announces the roster, repeating if the snapshot
// itself evicted a slow client. Each eviction shrinks the registry, so
// the loop terminates.
func (h *Hub) broadcastPresence() {
	for h.broadcast(protocol.MustEnvelope(protocol.EventUserPresence, h.roster()), nil) {
	}
}

func (h *Hub) roster() []protocol.UserInfo {
	roster := make([]protocol.UserInfo, 0, len(h.clients))
	for _, client := range h.clients {
		roster = append(roster, protocol.UserInfo{ID: client.ID, Color: client.Color})
	}
	return roster
}

func (h *Hub) publishToBridge(env protocol.Envelope) {
	if h.bridge == nil {
		return
	}
	frame, err := json.Marshal(bridgeFrame{Origin: h.instanceID, Envelope: env})
	if err != nil {
		h.logger.Error("encode bridge frame", zap.Error(err))
		return
	}
	// Off the Run loop so a slow bridge never stalls local fan-out.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.bridge.Publish(ctx, frame); err != nil {
			h.logger.Warn("bridge publish failed", zap.Error(err))
		}
	}()
}

// deliverBridged injects a frame published by another instance into
// the Run loop. Frames this instance published itself are discarded.
func (h *Hub) deliverBridged(frame []byte) {
	var bf bridgeFrame
	if err := json.Unmarshal(frame, &bf); err != nil {
		h.logger.Warn("dropping malformed bridge frame", zap.Error(err))
		return
	}
	if bf.Origin == h.instanceID {
		return
	}
	select {
	case h.bridged <- bf.Envelope:
	default:
		h.logger.Warn("bridge inbound buffer full, dropping frame")
	}
}

// Bridge fans relayed events out to the other server instances. Origin
// filtering happens in the hub, so an implementation may deliver this
// instance's own frames back through Subscribe.
type Bridge interface {
	Publish(ctx context.Context, frame []byte) error
	// Subscribe blocks, invoking deliver for every frame until ctx is
	// cancelled or the underlying connection fails.
	Subscribe(ctx context.Context, deliver func(frame []byte)) error
}

// bridgeFrame is the envelope exchanged between instances.
type bridgeFrame struct {
	Origin   string            `json:"origin"`
	Envelope protocol.Envelope `json:"envelope"`
}
