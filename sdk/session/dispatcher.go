package session

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/protocol"
)

// dispatcher routes inbound envelopes to registered callbacks, in the
// order frames arrive on the transport. Unknown events and payloads
// that fail to decode are dropped permissively.
type dispatcher struct {
	logger *zap.Logger

	onRemotePress   func(protocol.RemoteNotePress)
	onRemoteRelease func(protocol.RemoteNoteRelease)
	onUserInfo      func(protocol.UserInfo)
	onPresence      func([]protocol.UserInfo)
}

func (d *dispatcher) dispatch(env protocol.Envelope) {
	switch env.Event {
	case protocol.EventRemoteNotePress:
		if d.onRemotePress == nil {
			return
		}
		var ev protocol.RemoteNotePress
		if !d.decode(env, &ev) {
			return
		}
		d.onRemotePress(ev)
	case protocol.EventRemoteNoteRelease:
		if d.onRemoteRelease == nil {
			return
		}
		var ev protocol.RemoteNoteRelease
		if !d.decode(env, &ev) {
			return
		}
		d.onRemoteRelease(ev)
	case protocol.EventUserInfo:
		if d.onUserInfo == nil {
			return
		}
		var ev protocol.UserInfo
		if !d.decode(env, &ev) {
			return
		}
		d.onUserInfo(ev)
	case protocol.EventUserPresence:
		if d.onPresence == nil {
			return
		}
		var roster []protocol.UserInfo
		if !d.decode(env, &roster) {
			return
		}
		d.onPresence(roster)
	default:
		d.logger.Debug("ignoring unknown event", zap.String("event", env.Event))
	}
}

func (d *dispatcher) decode(env protocol.Envelope, v any) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		d.logger.Warn("dropping malformed payload",
			zap.String("event", env.Event), zap.Error(err))
		return false
	}
	return true
}
