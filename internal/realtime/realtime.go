// Package realtime defines the capabilities the game and room services need from the
// messaging layer, and the single-goroutine loop that serialises all state changes.
package realtime

import (
	"context"

	"github.com/mcoot/othellochat/internal/model"
)

// Transport delivers events and tracks group membership.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Join adds a connection to a room. Joining a room twice is a no-op.
	Join(conn model.ConnectionID, room model.RoomName)

	// Leave removes a connection from a room
	Leave(conn model.ConnectionID, room model.RoomName)

	// Members returns the room's connections in join order
	Members(room model.RoomName) []model.ConnectionID

	// Emit sends an event to a single connection. Unknown connections are ignored.
	Emit(conn model.ConnectionID, event model.EventName, payload any)

	// EmitRoom sends an event to every member of a room
	EmitRoom(room model.RoomName, event model.EventName, payload any)
}

// Task is a unit of work run on the dispatch loop
type Task func(ctx context.Context)

// MembersFunc is the continuation of a membership query
type MembersFunc func(ctx context.Context, members []model.ConnectionID)

// Executor schedules work onto the dispatch loop
type Executor interface {
	// Submit queues a task behind everything already queued
	Submit(task Task)

	// QueryMembers reads a room's membership after every task already queued has run,
	// then calls then with the result. State may have changed in between.
	QueryMembers(room model.RoomName, then MembersFunc)
}

// Reply sends a failure for err to a single connection
func Reply(t Transport, conn model.ConnectionID, event model.EventName, err error) {
	t.Emit(conn, event, model.NewFailure(model.FailureMessage(err)))
}
