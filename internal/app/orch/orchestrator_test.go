package orch

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Attend/internal/app"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Envelope
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return core.ErrBackpressure
	}
	e, err := core.Decode(f)
	if err != nil {
		return err
	}
	c.frames = append(c.frames, e)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) all() []core.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Envelope(nil), c.frames...)
}

func (c *fakeConn) ofType(typ string) []core.Envelope {
	var out []core.Envelope
	for _, e := range c.all() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	t     *testing.T
	o     *Orchestrator
	conns map[core.ConnID]*fakeConn
	kills map[core.ConnID]*atomic.Int32
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:     t,
		o:     New(app.NewRegistry(), app.NewRoomTable()),
		conns: make(map[core.ConnID]*fakeConn),
		kills: make(map[core.ConnID]*atomic.Int32),
	}
}

func (h *harness) join(id core.ConnID, room domain.RoomID, role domain.Role) error {
	c, ok := h.conns[id]
	if !ok {
		c = &fakeConn{}
		h.conns[id] = c
		h.kills[id] = &atomic.Int32{}
	}
	kills := h.kills[id]
	return h.o.Join(id, c, func() { kills.Add(1) }, room, domain.DisplayName("name-"+string(id)), role)
}

func (h *harness) mustJoin(id core.ConnID, room domain.RoomID, role domain.Role) {
	require.NoError(h.t, h.join(id, room, role))
}

func TestJoinAck(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)

	acks := h.conns["h"].ofType(core.TypeJoined)
	require.Len(t, acks, 1)
	assert.Equal(t, core.ConnID("h"), acks[0].ID)
	assert.Equal(t, domain.RoleHost, acks[0].Role)
	assert.Len(t, h.conns["h"].ofType(core.TypeMemberJoined), 1)
}

func TestPeerJoinNotifiesHostOnce(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p1", "r", domain.RolePeer)

	got := h.conns["h"].ofType(core.TypePeerJoined)
	require.Len(t, got, 1)
	assert.Equal(t, core.ConnID("p1"), got[0].PeerID)
	assert.Equal(t, domain.DisplayName("name-p1"), got[0].Name)
	assert.Empty(t, h.conns["p1"].ofType(core.TypePeerJoined))

	// every member sees the newcomer
	assert.Len(t, h.conns["h"].ofType(core.TypeMemberJoined), 2)
	assert.Len(t, h.conns["p1"].ofType(core.TypeMemberJoined), 1)
}

func TestLateHostIsNotToldAboutExistingPeers(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("p1", "r", domain.RolePeer)
	h.mustJoin("h", "r", domain.RoleHost)

	assert.Empty(t, h.conns["h"].ofType(core.TypePeerJoined))
}

func TestLateHostNotifiedWhenEnabled(t *testing.T) {
	h := newHarness(t)
	h.o.NotifyExistingPeers = true
	h.mustJoin("p1", "r", domain.RolePeer)
	h.mustJoin("p2", "r", domain.RolePeer)
	h.mustJoin("h", "r", domain.RoleHost)

	got := h.conns["h"].ofType(core.TypePeerJoined)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []core.ConnID{"p1", "p2"}, []core.ConnID{got[0].PeerID, got[1].PeerID})
}

func TestRelayToDisconnectedIsDropped(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("a", "r", domain.RolePeer)
	h.mustJoin("b", "r", domain.RolePeer)
	h.o.OnDisconnect("b")
	before := len(h.conns["b"].all())

	assert.NotPanics(t, func() {
		h.o.Relay(core.SetupOffer, json.RawMessage(`{"sdp":"v=0"}`), "a", "b")
	})
	assert.Len(t, h.conns["b"].all(), before)
	assert.Empty(t, h.conns["a"].ofType(core.TypeError))
}

func TestRelayDeliversWithSource(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)

	h.o.Relay(core.SetupOffer, json.RawMessage(`{"sdp":"o"}`), "h", "p")
	got := h.conns["p"].ofType(core.TypeOffer)
	require.Len(t, got, 1)
	assert.Equal(t, core.ConnID("h"), got[0].From)
	assert.JSONEq(t, `{"sdp":"o"}`, string(got[0].Payload))
	assert.Empty(t, got[0].To)
}

func TestRelayPreservesOrderPerDestination(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)

	h.o.Relay(core.SetupOffer, json.RawMessage(`1`), "h", "p")
	for i := 0; i < 20; i++ {
		h.o.Relay(core.SetupCandidate, json.RawMessage(fmt.Sprint(i+2)), "h", "p")
	}

	var seq []string
	for _, e := range h.conns["p"].all() {
		if e.Type == core.TypeOffer || e.Type == core.TypeCandidate {
			seq = append(seq, string(e.Payload))
		}
	}
	require.Len(t, seq, 21)
	assert.Equal(t, "1", seq[0])
	for i, s := range seq {
		assert.Equal(t, fmt.Sprint(i+1), s)
	}
}

func TestHostDisconnectNotifiesEveryPeerOnce(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p1", "r", domain.RolePeer)
	h.mustJoin("p2", "r", domain.RolePeer)

	h.o.OnDisconnect("h")

	assert.Len(t, h.conns["p1"].ofType(core.TypeHostLeft), 1)
	assert.Len(t, h.conns["p2"].ofType(core.TypeHostLeft), 1)
	assert.Empty(t, h.conns["h"].ofType(core.TypeHostLeft))
	_, ok := h.o.Rooms.Host("r")
	assert.False(t, ok)

	left := h.conns["p1"].ofType(core.TypeMemberLeft)
	require.Len(t, left, 1)
	assert.Equal(t, domain.DisplayName("name-h"), left[0].Name)
}

func TestPeerDisconnectNotifiesHost(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p1", "r", domain.RolePeer)
	h.mustJoin("p2", "r", domain.RolePeer)

	h.o.OnDisconnect("p1")

	got := h.conns["h"].ofType(core.TypePeerLeft)
	require.Len(t, got, 1)
	assert.Equal(t, core.ConnID("p1"), got[0].PeerID)
	assert.NotContains(t, h.o.Rooms.Peers("r"), core.ConnID("p1"))
	assert.Empty(t, h.conns["p2"].ofType(core.TypePeerLeft))
	assert.Len(t, h.conns["p2"].ofType(core.TypeMemberLeft), 1)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p1", "r", domain.RolePeer)

	h.o.OnDisconnect("p1")
	before := len(h.conns["h"].all())
	assert.NotPanics(t, func() { h.o.OnDisconnect("p1") })
	assert.Len(t, h.conns["h"].all(), before)

	h.o.OnDisconnect("never-joined")
}

func TestRejoinLeavesPreviousRoom(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r1", domain.RoleHost)
	h.mustJoin("p", "r1", domain.RolePeer)
	h.mustJoin("p", "r2", domain.RolePeer)

	assert.Len(t, h.conns["h"].ofType(core.TypePeerLeft), 1)
	assert.Empty(t, h.o.Rooms.Peers("r1"))
	assert.Equal(t, []core.ConnID{"p"}, h.o.Rooms.Peers("r2"))
	m, ok := h.o.Registry.Lookup("p")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r2"), m.Room)
}

func TestConcurrentHostClaimsKeepOneHost(t *testing.T) {
	for _, policy := range []app.HostPolicy{app.HostReplace, app.HostEvict, app.HostReject} {
		t.Run(string(policy), func(t *testing.T) {
			o := New(app.NewRegistry(), app.NewRoomTable())
			o.HostPolicy = policy

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := core.ConnID(fmt.Sprintf("h%d", i))
					_ = o.Join(id, &fakeConn{}, nil, "r", "host", domain.RoleHost)
				}(i)
			}
			wg.Wait()

			host, ok := o.Rooms.Host("r")
			require.True(t, ok)
			m, ok := o.Registry.Lookup(host)
			require.True(t, ok)
			assert.True(t, m.IsHost())

			if policy != app.HostReplace {
				assert.Equal(t, 1, o.Registry.Len(), "only the current host stays registered")
			}
		})
	}
}

func TestHostPolicyReject(t *testing.T) {
	h := newHarness(t)
	h.o.HostPolicy = app.HostReject
	h.mustJoin("h1", "r", domain.RoleHost)

	err := h.join("h2", "r", domain.RoleHost)
	assert.ErrorIs(t, err, app.ErrHostTaken)

	host, _ := h.o.Rooms.Host("r")
	assert.Equal(t, core.ConnID("h1"), host)
	_, ok := h.o.Registry.Lookup("h2")
	assert.False(t, ok)

	// the same connection re-claiming its own room is fine
	require.NoError(t, h.join("h1", "r", domain.RoleHost))
}

func TestHostPolicyRejectKeepsCallerInPreviousRoom(t *testing.T) {
	h := newHarness(t)
	h.o.HostPolicy = app.HostReject
	h.mustJoin("h1", "r1", domain.RoleHost)
	h.mustJoin("p", "r1", domain.RolePeer)
	h.mustJoin("h2", "r2", domain.RoleHost)

	err := h.join("h1", "r2", domain.RoleHost)
	require.ErrorIs(t, err, app.ErrHostTaken)

	m, ok := h.o.Registry.Lookup("h1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), m.Room)
	assert.True(t, m.IsHost())
	host, ok := h.o.Rooms.Host("r1")
	require.True(t, ok)
	assert.Equal(t, core.ConnID("h1"), host)
	assert.Equal(t, []core.ConnID{"p"}, h.o.Rooms.Peers("r1"))
	assert.Empty(t, h.conns["p"].ofType(core.TypeHostLeft))
	assert.Empty(t, h.conns["p"].ofType(core.TypeMemberLeft))
}

func TestHostPolicyEvict(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h1", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)
	h.mustJoin("h2", "r", domain.RoleHost)

	got := h.conns["h1"].ofType(core.TypeHostReplaced)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RoomID("r"), got[0].Room)

	h.o.OnDisconnect("h1")
	assert.Empty(t, h.conns["p"].ofType(core.TypeHostLeft))
	host, _ := h.o.Rooms.Host("r")
	assert.Equal(t, core.ConnID("h2"), host)
}

func TestEvictedHostIsClosedAndCannotRelay(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h1", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)
	h.mustJoin("h2", "r", domain.RoleHost)

	assert.Equal(t, int32(1), h.kills["h1"].Load())
	assert.Zero(t, h.kills["h2"].Load())

	before := len(h.conns["p"].ofType(core.TypeOffer))
	h.o.Relay(core.SetupOffer, json.RawMessage(`{"sdp":"stale"}`), "h1", "p")
	h.o.Relay(core.SetupCandidate, json.RawMessage(`{}`), "h1", "p")
	assert.Len(t, h.conns["p"].ofType(core.TypeOffer), before)
	assert.Empty(t, h.conns["p"].ofType(core.TypeCandidate))

	h.o.Relay(core.SetupOffer, json.RawMessage(`{"sdp":"fresh"}`), "h2", "p")
	offers := h.conns["p"].ofType(core.TypeOffer)
	require.Len(t, offers, before+1)
	assert.Equal(t, core.ConnID("h2"), offers[len(offers)-1].From)
}

func TestRelayFromUnjoinedSenderIsDropped(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("p", "r", domain.RolePeer)
	h.o.Relay(core.SetupOffer, json.RawMessage(`{}`), "ghost", "p")
	assert.Empty(t, h.conns["p"].ofType(core.TypeOffer))
}

func TestHostPolicyReplaceKeepsNewHost(t *testing.T) {
	h := newHarness(t)
	h.o.HostPolicy = app.HostReplace
	h.mustJoin("h1", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)
	h.mustJoin("h2", "r", domain.RoleHost)

	assert.Empty(t, h.conns["h1"].ofType(core.TypeHostReplaced))

	h.o.OnDisconnect("h1")
	assert.Empty(t, h.conns["p"].ofType(core.TypeHostLeft), "stale host leaving must not end the session")
	host, ok := h.o.Rooms.Host("r")
	require.True(t, ok)
	assert.Equal(t, core.ConnID("h2"), host)
}

func TestReportInattentive(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("p", "r", domain.RolePeer)
	h.o.ReportInattentive("r", "bob")
	assert.Empty(t, h.conns["p"].ofType(core.TypeStudentInattentive))

	h.mustJoin("h", "r", domain.RoleHost)
	h.o.ReportInattentive("r", "bob")
	got := h.conns["h"].ofType(core.TypeStudentInattentive)
	require.Len(t, got, 1)
	assert.Equal(t, domain.DisplayName("bob"), got[0].Name)
	assert.Empty(t, h.conns["p"].ofType(core.TypeStudentInattentive))

	h.o.ReportInattentive("unknown", "bob")
}

func TestHandshakeExpiryReapsPeer(t *testing.T) {
	h := newHarness(t)
	h.o.HandshakeTimeout = 20 * time.Millisecond
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)
	assert.Equal(t, 1, h.o.PendingSetups())

	require.Eventually(t, func() bool {
		return len(h.conns["p"].ofType(core.TypeSetupExpired)) == 1
	}, time.Second, 5*time.Millisecond)

	_, ok := h.o.Registry.Lookup("p")
	assert.False(t, ok)
	assert.Len(t, h.conns["h"].ofType(core.TypePeerLeft), 1)
	assert.Equal(t, int32(1), h.kills["p"].Load())
	assert.Equal(t, 0, h.o.PendingSetups())
}

func TestHandshakeAnswerClearsTimer(t *testing.T) {
	h := newHarness(t)
	h.o.HandshakeTimeout = 30 * time.Millisecond
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)

	h.o.Relay(core.SetupAnswer, json.RawMessage(`{}`), "p", "h")
	assert.Equal(t, 0, h.o.PendingSetups())

	time.Sleep(80 * time.Millisecond)
	_, ok := h.o.Registry.Lookup("p")
	assert.True(t, ok)
	assert.Empty(t, h.conns["p"].ofType(core.TypeSetupExpired))
}

func TestHostLeavingClearsPendingSetups(t *testing.T) {
	h := newHarness(t)
	h.o.HandshakeTimeout = 30 * time.Millisecond
	h.mustJoin("h", "r", domain.RoleHost)
	h.mustJoin("p", "r", domain.RolePeer)

	h.o.OnDisconnect("h")
	assert.Equal(t, 0, h.o.PendingSetups())
	time.Sleep(80 * time.Millisecond)
	_, ok := h.o.Registry.Lookup("p")
	assert.True(t, ok)
}

func TestBackpressureKick(t *testing.T) {
	h := newHarness(t)
	h.o.Policy = app.KickPolicy{}
	h.mustJoin("h", "r", domain.RoleHost)
	h.conns["h"].mu.Lock()
	h.conns["h"].full = true
	h.conns["h"].mu.Unlock()

	h.mustJoin("p", "r", domain.RolePeer)
	assert.GreaterOrEqual(t, h.kills["h"].Load(), int32(1))
	assert.Equal(t, int32(0), h.kills["p"].Load())
}

func TestBackpressureDropByDefault(t *testing.T) {
	h := newHarness(t)
	h.mustJoin("h", "r", domain.RoleHost)
	h.conns["h"].mu.Lock()
	h.conns["h"].full = true
	h.conns["h"].mu.Unlock()

	h.mustJoin("p", "r", domain.RolePeer)
	assert.Equal(t, int32(0), h.kills["h"].Load())
}
