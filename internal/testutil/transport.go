package testutil

import (
	"encoding/json"
	"sync"

	"github.com/mcoot/othellochat/internal/model"
)

// SentEvent is one event recorded by FakeTransport
type SentEvent struct {
	// Room is empty for events emitted to a single connection
	Room       model.RoomName
	Recipients []model.ConnectionID
	Event      model.EventName
	Payload    json.RawMessage
}

// Decode unmarshals the payload into v
func (e SentEvent) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// FakeTransport is an in-memory realtime.Transport that records every emitted event.
// Payloads are marshalled at emit time so later mutation of the source value is not observed.
type FakeTransport struct {
	mu     sync.Mutex
	groups map[model.RoomName][]model.ConnectionID
	sent   []SentEvent
}

// NewFakeTransport creates an empty FakeTransport
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{groups: make(map[model.RoomName][]model.ConnectionID)}
}

func (f *FakeTransport) Join(conn model.ConnectionID, room model.RoomName) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if model.Contains(f.groups[room], conn) {
		return
	}
	f.groups[room] = append(f.groups[room], conn)
}

func (f *FakeTransport) Leave(conn model.ConnectionID, room model.RoomName) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveLocked(conn, room)
}

func (f *FakeTransport) leaveLocked(conn model.ConnectionID, room model.RoomName) {
	members := f.groups[room]
	for i, m := range members {
		if m == conn {
			f.groups[room] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(f.groups[room]) == 0 {
		delete(f.groups, room)
	}
}

// Disconnect removes conn from every room, as the real transport does before
// reporting a disconnect
func (f *FakeTransport) Disconnect(conn model.ConnectionID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for room := range f.groups {
		f.leaveLocked(conn, room)
	}
}

func (f *FakeTransport) Members(room model.RoomName) []model.ConnectionID {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]model.ConnectionID, len(f.groups[room]))
	copy(members, f.groups[room])
	return members
}

func (f *FakeTransport) Emit(conn model.ConnectionID, event model.EventName, payload any) {
	f.record(SentEvent{
		Recipients: []model.ConnectionID{conn},
		Event:      event,
		Payload:    mustMarshal(payload),
	})
}

func (f *FakeTransport) EmitRoom(room model.RoomName, event model.EventName, payload any) {
	f.record(SentEvent{
		Room:       room,
		Recipients: f.Members(room),
		Event:      event,
		Payload:    mustMarshal(payload),
	})
}

func (f *FakeTransport) record(ev SentEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ev)
}

// Sent returns every recorded event in emit order
func (f *FakeTransport) Sent() []SentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentEvent, len(f.sent))
	copy(out, f.sent)
	return out
}

// ByEvent returns the recorded events with the given name
func (f *FakeTransport) ByEvent(event model.EventName) []SentEvent {
	var out []SentEvent
	for _, ev := range f.Sent() {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

// DeliveredTo returns the events that reached conn, directly or through a room
func (f *FakeTransport) DeliveredTo(conn model.ConnectionID) []SentEvent {
	var out []SentEvent
	for _, ev := range f.Sent() {
		if model.Contains(ev.Recipients, conn) {
			out = append(out, ev)
		}
	}
	return out
}

// Reset forgets recorded events but keeps room membership
func (f *FakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
