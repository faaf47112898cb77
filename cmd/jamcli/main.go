// jamcli is a terminal client for the tapejam relay. It connects
// through the SDK, prints presence and remote key activity, and plays
// a short riff with the synthesized voice so a relay can be exercised
// end to end without a browser.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/protocol"
	"github.com/tapejam/tapejam/sdk/audio"
	"github.com/tapejam/tapejam/sdk/session"
	"github.com/tapejam/tapejam/sdk/tape"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "relay websocket URL")
	riff := flag.Bool("riff", true, "play a demo riff after connecting")
	flag.Parse()

	zlog, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	cfg := session.DefaultConfig()
	cfg.URL = *url
	client := session.NewClient(cfg, zlog)

	presence := session.NewPresenceStore()
	presence.Bind(client)

	engine := tape.NewEngine(zlog,
		tape.WithVoice(audio.NewSynthVoice(&consoleOutput{}, zlog)))

	client.OnUserInfo(func(info protocol.UserInfo) {
		fmt.Printf("you are %s (%s)\n", info.ID, info.Color)
	})
	client.OnUserPresence(func(roster []protocol.UserInfo) {
		fmt.Printf("%d online\n", len(roster))
	})
	client.OnRemoteNotePress(func(ev protocol.RemoteNotePress) {
		fmt.Printf("%s pressed %s%d\n", ev.UserID, ev.Note, ev.Octave)
	})
	client.OnRemoteNoteRelease(func(ev protocol.RemoteNoteRelease) {
		fmt.Printf("%s released %s%d\n", ev.UserID, ev.Note, ev.Octave)
	})
	client.OnStateChange(func(ev session.StateEvent) {
		fmt.Printf("connection: %s -> %s\n", ev.Old, ev.New)
	})

	client.Connect()
	defer client.Disconnect()

	if *riff {
		go playRiff(client, engine)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

// playRiff walks a C major arpeggio, pressing locally and emitting to
// the relay the same way a keyboard UI would.
func playRiff(client *session.Client, engine *tape.Engine) {
	notes := []struct {
		name   string
		octave int
	}{
		{"C", 4}, {"E", 4}, {"G", 4}, {"C", 5},
	}
	for _, n := range notes {
		engine.Press(n.name, n.octave, 0.8, nil)
		client.EmitNotePress(n.name, n.octave, 0.8)
		time.Sleep(400 * time.Millisecond)
		engine.Release(n.name, n.octave)
		client.EmitNoteRelease(n.name, n.octave)
	}
}

// consoleOutput is a stand-in audio device that narrates playback.
type consoleOutput struct{}

func (consoleOutput) Start(noteID string, pcm []byte, velocity float64) {
	fmt.Printf("▶ %s (velocity %.2f)\n", noteID, velocity)
}

func (consoleOutput) Stop(noteID string, cause tape.StopCause) {
	fmt.Printf("■ %s (%s)\n", noteID, cause)
}
