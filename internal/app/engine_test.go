package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/domain"
)

type recordingMetrics struct {
	opened, closed, messages int
}

func (m *recordingMetrics) ConnectionOpened() { m.opened++ }
func (m *recordingMetrics) ConnectionClosed() { m.closed++ }
func (m *recordingMetrics) MessageProcessed() { m.messages++ }
func (m *recordingMetrics) RequestServed()    {}
func (m *recordingMetrics) ErrorTracked()     {}

func newTestEngine(m Metrics) *Engine {
	return NewEngine(seedRooms(), "general", 0, m)
}

func roomCount(t *testing.T, e *Engine, id domain.RoomID) int {
	t.Helper()
	for _, s := range e.Snapshot().Rooms {
		if s.ID == id {
			return s.UserCount
		}
	}
	t.Fatalf("room %s not in snapshot", id)
	return 0
}

func TestOnJoinEmitsSnapshotUserListAndSystemNotice(t *testing.T) {
	e := newTestEngine(nil)

	envs := e.OnJoin("tok-a", domain.Profile{Username: "alice"})
	require.Len(t, envs, 3)

	joined := findEnvelope(t, envs, EvUserJoined)
	assert.Equal(t, []domain.ConnToken{"tok-a"}, joined.To.Conns)
	payload, ok := joined.Payload.(JoinedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("general"), payload.User.CurrentRoom)
	assert.Len(t, payload.Rooms, 3)

	users := findEnvelope(t, envs, EvUsersUpdate)
	assert.True(t, users.To.All)
	list, ok := users.Payload.([]domain.User)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)

	notice := findEnvelope(t, envs, EvMessageReceive)
	msg, ok := notice.Payload.(*domain.Message)
	require.True(t, ok)
	assert.Equal(t, domain.MessageSystem, msg.Type)
	assert.Equal(t, "alice joined the chat", msg.Content)
	assert.Equal(t, []domain.ConnToken{"tok-a"}, notice.To.Conns)
}

func TestOnJoinInvalidProfileDropped(t *testing.T) {
	e := newTestEngine(nil)
	assert.Nil(t, e.OnJoin("tok-a", domain.Profile{Username: ""}))
	assert.Equal(t, 0, e.Snapshot().Users)
}

func TestOnJoinDuplicateTokenDropped(t *testing.T) {
	e := newTestEngine(nil)
	require.NotNil(t, e.OnJoin("tok-a", domain.Profile{Username: "alice"}))
	assert.Nil(t, e.OnJoin("tok-a", domain.Profile{Username: "alice2"}))
	assert.Equal(t, 1, e.Snapshot().Users)
}

func TestOnRoomSwitch(t *testing.T) {
	e := newTestEngine(nil)
	e.OnJoin("tok-a", domain.Profile{Username: "alice"})
	e.OnJoin("tok-b", domain.Profile{Username: "bob"})

	envs := e.OnRoomSwitch("tok-a", "tech")
	require.Len(t, envs, 4)

	left, ok := envs[0].Payload.(*domain.Message)
	require.True(t, ok)
	assert.Equal(t, "alice left the room", left.Content)
	assert.Equal(t, domain.RoomID("general"), left.Room)
	assert.Equal(t, []domain.ConnToken{"tok-b"}, envs[0].To.Conns, "old room hears the leave after the leaver is gone")

	ack := findEnvelope(t, envs, EvRoomJoined)
	assert.Equal(t, []domain.ConnToken{"tok-a"}, ack.To.Conns)
	assert.Equal(t, SwitchAck{RoomID: "tech", RoomName: "Tech Talk"}, ack.Payload)

	joined, ok := envs[2].Payload.(*domain.Message)
	require.True(t, ok)
	assert.Equal(t, "alice joined the room", joined.Content)
	assert.Equal(t, []domain.ConnToken{"tok-a"}, envs[2].To.Conns)

	rooms := findEnvelope(t, envs, EvRoomsUpdate)
	assert.True(t, rooms.To.All)

	assert.Equal(t, 1, roomCount(t, e, "general"))
	assert.Equal(t, 1, roomCount(t, e, "tech"))
}

func TestOnRoomSwitchUnknownRoomIsSilent(t *testing.T) {
	e := newTestEngine(nil)
	e.OnJoin("tok-a", domain.Profile{Username: "alice"})

	assert.Nil(t, e.OnRoomSwitch("tok-a", "nope"))
	assert.Equal(t, 1, roomCount(t, e, "general"), "membership untouched")
}

func TestOnRoomSwitchUnknownSenderIsSilent(t *testing.T) {
	e := newTestEngine(nil)
	assert.Nil(t, e.OnRoomSwitch("ghost", "tech"))
}

func TestOnDisconnectCleansEverything(t *testing.T) {
	e := newTestEngine(nil)
	e.OnJoin("tok-a", domain.Profile{Username: "alice"})
	e.OnJoin("tok-b", domain.Profile{Username: "bob"})

	envs := e.OnDisconnect("tok-a")
	require.Len(t, envs, 3)

	notice, ok := envs[0].Payload.(*domain.Message)
	require.True(t, ok)
	assert.Equal(t, "alice left the chat", notice.Content)
	assert.Equal(t, []domain.ConnToken{"tok-b"}, envs[0].To.Conns)

	users := findEnvelope(t, envs, EvUsersUpdate)
	list := users.Payload.([]domain.User)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].Username)

	assert.True(t, findEnvelope(t, envs, EvRoomsUpdate).To.All)
	assert.Equal(t, 1, e.Snapshot().Users)
}

func TestOnDisconnectBeforeJoinIsSilent(t *testing.T) {
	e := newTestEngine(nil)
	e.OnConnect("tok-a")
	assert.Nil(t, e.OnDisconnect("tok-a"))
}

func TestLifecycleNeverLeaksMembership(t *testing.T) {
	e := newTestEngine(nil)

	e.OnJoin("tok-a", domain.Profile{Username: "alice"})
	e.OnRoomSwitch("tok-a", "tech")
	e.OnRoomSwitch("tok-a", "random")
	e.OnDisconnect("tok-a")

	for _, s := range e.Snapshot().Rooms {
		assert.Zero(t, s.UserCount, "room %s still holds a member", s.ID)
	}
}

func TestRepeatedJoinsAndDisconnectsLeaveSeededRoomsIntact(t *testing.T) {
	e := newTestEngine(nil)

	const n = 25
	for i := 0; i < n; i++ {
		tok := domain.ConnToken(fmt.Sprintf("tok-%d", i))
		require.NotEmpty(t, e.OnJoin(tok, domain.Profile{Username: fmt.Sprintf("u%d", i)}))
	}
	assert.Equal(t, n, roomCount(t, e, "general"))

	for i := 0; i < n; i++ {
		e.OnDisconnect(domain.ConnToken(fmt.Sprintf("tok-%d", i)))
	}
	assert.Equal(t, 0, roomCount(t, e, "general"))
	assert.Len(t, e.Snapshot().Rooms, 3, "seeded rooms are never deleted")
}

func TestMetricsHooksFire(t *testing.T) {
	m := &recordingMetrics{}
	e := newTestEngine(m)

	e.OnConnect("tok-a")
	e.OnJoin("tok-a", domain.Profile{Username: "alice"})
	e.OnConnect("tok-b")
	e.OnJoin("tok-b", domain.Profile{Username: "bob"})
	e.SendRoom("tok-a", "", "hi")
	e.SendPrivate("tok-a", "tok-b", "psst")
	e.SendPrivate("tok-a", "ghost", "dropped")
	e.OnDisconnect("tok-a")

	assert.Equal(t, 2, m.opened)
	assert.Equal(t, 1, m.closed)
	assert.Equal(t, 2, m.messages, "dropped sends are not counted")
}

// The full walkthrough: alice joins, says hi, bob joins, bob moves to tech,
// alice messages bob privately.
func TestChatScenario(t *testing.T) {
	e := newTestEngine(nil)

	e.OnJoin("tok-alice", domain.Profile{Username: "alice"})

	hi := e.SendRoom("tok-alice", "", "hi")
	recv := findEnvelope(t, hi, EvMessageReceive)
	msg := recv.Payload.(*domain.Message)
	assert.Equal(t, domain.RoomID("general"), msg.Room)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, []domain.ConnToken{"tok-alice"}, recv.To.Conns)

	e.OnJoin("tok-bob", domain.Profile{Username: "bob"})
	assert.Equal(t, 2, roomCount(t, e, "general"))

	e.OnRoomSwitch("tok-bob", "tech")
	assert.Equal(t, 1, roomCount(t, e, "general"))
	assert.Equal(t, 1, roomCount(t, e, "tech"))

	priv := e.SendPrivate("tok-alice", "tok-bob", "hey")
	require.Len(t, priv, 1)

	buf := e.Conversation("tok-alice", "tok-bob")
	require.Len(t, buf, 1)
	assert.Equal(t, "hey", buf[0].Content)
}
