package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/testutil"
)

type HubTestSuite struct {
	suite.Suite
	hub *Hub
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubTestSuite))
}

func (s *HubTestSuite) SetupTest() {
	s.hub = NewHub(testutil.NopLogger())
}

// addClient registers a client with no socket behind it
func (s *HubTestSuite) addClient(id model.ConnectionID) *Client {
	c := &Client{id: id, send: make(chan []byte, sendBufferSize), logger: testutil.NopLogger()}
	s.Require().True(s.hub.register(c))
	return c
}

func (s *HubTestSuite) receive(c *Client) Envelope {
	select {
	case msg := <-c.send:
		var env Envelope
		s.Require().NoError(json.Unmarshal(msg, &env))
		return env
	default:
		s.FailNow("no message queued")
		return Envelope{}
	}
}

func (s *HubTestSuite) TestMembersInJoinOrder() {
	s.addClient("c")
	s.addClient("a")
	s.addClient("b")

	s.hub.Join("c", "room")
	s.hub.Join("a", "room")
	s.hub.Join("b", "room")
	s.hub.Join("a", "room")

	s.Equal([]model.ConnectionID{"c", "a", "b"}, s.hub.Members("room"))
}

func (s *HubTestSuite) TestLeaveKeepsOrderAndDropsEmptyRoom() {
	s.addClient("a")
	s.addClient("b")
	s.hub.Join("a", "room")
	s.hub.Join("b", "room")

	s.hub.Leave("a", "room")
	s.Equal([]model.ConnectionID{"b"}, s.hub.Members("room"))

	s.hub.Leave("b", "room")
	s.Empty(s.hub.Members("room"))
	_, rooms := s.hub.Stats()
	s.Equal(0, rooms)
}

func (s *HubTestSuite) TestJoinIgnoresUnknownConnection() {
	s.hub.Join("ghost", "room")
	s.Empty(s.hub.Members("room"))
}

func (s *HubTestSuite) TestMembersReturnsCopy() {
	s.addClient("a")
	s.hub.Join("a", "room")

	members := s.hub.Members("room")
	members[0] = "mutated"

	s.Equal([]model.ConnectionID{"a"}, s.hub.Members("room"))
}

func (s *HubTestSuite) TestEmitWrapsPayloadInEnvelope() {
	c := s.addClient("a")

	s.hub.Emit("a", model.EventInviteResponse, model.TargetResponse{Result: model.ResultSuccess, SocketID: "b"})

	env := s.receive(c)
	s.Equal(string(model.EventInviteResponse), env.Event)
	s.JSONEq(`{"result":"success","socket_id":"b"}`, string(env.Payload))
}

func (s *HubTestSuite) TestEmitRoomReachesOnlyMembers() {
	a := s.addClient("a")
	b := s.addClient("b")
	outsider := s.addClient("x")
	s.hub.Join("a", "room")
	s.hub.Join("b", "room")

	s.hub.EmitRoom("room", model.EventSendChatMessageResponse, model.ChatMessage{Result: model.ResultSuccess, Message: "hi"})

	s.Equal(string(model.EventSendChatMessageResponse), s.receive(a).Event)
	s.Equal(string(model.EventSendChatMessageResponse), s.receive(b).Event)
	s.Empty(outsider.send)
}

func (s *HubTestSuite) TestEmitSnapshotsPayload() {
	c := s.addClient("a")
	game := model.NewGame("abc", time.Unix(0, 0))

	s.hub.Emit("a", model.EventGameUpdate, model.GameUpdate{Result: model.ResultSuccess, GameID: "abc", Game: game})
	game.WhoseTurn = model.ColorWhite

	var update model.GameUpdate
	s.Require().NoError(json.Unmarshal(s.receive(c).Payload, &update))
	s.Equal(model.ColorBlack, update.Game.WhoseTurn)
}

func (s *HubTestSuite) TestUnregisterLeavesAllRooms() {
	c := s.addClient("a")
	s.addClient("b")
	s.hub.Join("a", "lobby")
	s.hub.Join("a", "abc")
	s.hub.Join("b", "lobby")

	s.hub.unregister(c)

	s.Equal([]model.ConnectionID{"b"}, s.hub.Members("lobby"))
	s.Empty(s.hub.Members("abc"))
	_, open := <-c.send
	s.False(open)

	connections, rooms := s.hub.Stats()
	s.Equal(1, connections)
	s.Equal(1, rooms)
}

func (s *HubTestSuite) TestUnregisterTwiceIsSafe() {
	c := s.addClient("a")
	s.hub.unregister(c)
	s.NotPanics(func() { s.hub.unregister(c) })
}

func (s *HubTestSuite) TestCloseRejectsNewClients() {
	c := s.addClient("a")

	s.hub.Close()

	_, open := <-c.send
	s.False(open)
	s.False(s.hub.register(&Client{id: "b", send: make(chan []byte, 1)}))
	connections, _ := s.hub.Stats()
	s.Equal(0, connections)
}
