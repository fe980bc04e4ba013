package network

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/platform/logger"
)

func newTestHub() (*Hub, *narrate.GateSet) {
	gates := narrate.NewGateSet()
	return NewHub(gates, 16, 4, logger.NewLogger()), gates
}

func recvFrame(t *testing.T, ch chan []byte) Frame {
	t.Helper()
	select {
	case payload := <-ch:
		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("Broadcast payload is not a frame: %v", err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for a broadcast frame")
		return Frame{}
	}
}

func TestHubRoutesFramesPerGame(t *testing.T) {
	hub, _ := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	red := &Client{hub: hub, gameID: "g1", send: make(chan []byte, 4)}
	blue := &Client{hub: hub, gameID: "g2", send: make(chan []byte, 4)}
	hub.register <- red
	hub.register <- blue

	hub.BroadcastToGame("g1", Frame{Type: "message", GameID: "g1", Payload: "hello"})

	frame := recvFrame(t, red.send)
	if frame.GameID != "g1" || frame.Type != "message" {
		t.Errorf("Expected a g1 message frame, got %+v", frame)
	}

	select {
	case payload := <-blue.send:
		t.Errorf("Client subscribed to g2 received a g1 frame: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub, _ := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &Client{hub: hub, gameID: "g1", send: make(chan []byte, 4)}
	hub.register <- client
	hub.unregister <- client

	select {
	case _, open := <-client.send:
		if open {
			t.Error("Expected the send channel closed after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("Send channel was not closed")
	}

	// A second unregister of the same client is a no-op.
	hub.unregister <- client
}

func TestClientCommandsDriveGates(t *testing.T) {
	hub, gates := newTestHub()
	client := &Client{hub: hub, gameID: "g1", send: make(chan []byte, 4)}

	client.handleCommand(ClientCommand{Type: "gating", Enabled: true})
	if !gates.For("g1").Enabled() {
		t.Error("Expected gating enabled after the gating command")
	}

	// Acks flow through to the game's gate without error.
	client.handleCommand(ClientCommand{Type: "ack"})

	client.handleCommand(ClientCommand{Type: "gating", Enabled: false})
	if gates.For("g1").Enabled() {
		t.Error("Expected gating disabled after the second gating command")
	}

	// Unknown commands are logged and dropped.
	client.handleCommand(ClientCommand{Type: "mystery"})
}
