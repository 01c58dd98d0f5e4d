package inventory

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

func testStore() *Store {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ignoreTimestamps() cmp.Option {
	return cmpopts.IgnoreFields(topo.Base{}, "Created", "Changed")
}

func TestCreateAndFindSwitch(t *testing.T) {
	s := testStore()
	sw := topo.NewSwitch(0x1, "conn-1", topo.OF13, nil)

	require.NoError(t, s.CreateSwitch(sw))

	found, err := s.FindSwitch(sw.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(sw, found, ignoreTimestamps()); diff != "" {
		t.Errorf("diff (-want +got):\n%s", diff)
	}

	byDPID, err := s.FindSwitchByDPID(0x1)
	require.NoError(t, err)
	require.Equal(t, sw.ID, byDPID.ID)
}

func TestCreateSwitchConflict(t *testing.T) {
	s := testStore()
	sw := topo.NewSwitch(0x1, "conn-1", topo.OF13, nil)

	require.NoError(t, s.CreateSwitch(sw))
	err := s.CreateSwitch(sw)
	require.Error(t, err)
	require.True(t, topo.IsConflict(err))
}

func TestFindSwitchNotFound(t *testing.T) {
	s := testStore()

	_, err := s.FindSwitch("00:00:00:00:00:00:00:99")
	require.Error(t, err)
	require.True(t, topo.IsNotFound(err))
}

func TestListSwitchesOrderedSnapshot(t *testing.T) {
	s := testStore()
	require.NoError(t, s.CreateSwitch(topo.NewSwitch(0x2, "conn-2", topo.OF10, topo.Ports{{No: 1}})))
	require.NoError(t, s.CreateSwitch(topo.NewSwitch(0x1, "conn-1", topo.OF13, topo.Ports{{No: 1}})))

	ss := s.ListSwitches()
	require.Len(t, ss, 2)
	require.Equal(t, "00:00:00:00:00:00:00:01", ss[0].ID)
	require.Equal(t, "00:00:00:00:00:00:00:02", ss[1].ID)

	// mutating the snapshot must not leak into the store
	ss[0].Connected = false
	ss[0].Ports[0].No = 42

	stored, err := s.FindSwitch(ss[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.Connected)
	assert.Equal(t, topo.PortNo(1), stored.Ports[0].No)
}

func TestUpsertSwitchReconnect(t *testing.T) {
	s := testStore()
	first := s.UpsertSwitch(topo.NewSwitch(0x1, "conn-1", topo.OF10, topo.Ports{{No: 1}}))
	require.True(t, first.Connected)

	require.NoError(t, s.SetConnected(first.ID, "conn-1", false))

	second := s.UpsertSwitch(topo.NewSwitch(0x1, "conn-2", topo.OF13, topo.Ports{{No: 1}, {No: 2}}))
	require.True(t, second.Connected)
	require.Equal(t, "conn-2", second.ConnectionID)
	require.Equal(t, topo.OF13, second.Version)
	require.Len(t, second.Ports, 2)
	require.Equal(t, first.Created, second.Created, "reconnect keeps the original creation time")

	require.Len(t, s.ListSwitches(), 1)
}

func TestUpdateSwitchOptimisticLock(t *testing.T) {
	s := testStore()
	sw := topo.NewSwitch(0x1, "conn-1", topo.OF13, nil)
	require.NoError(t, s.CreateSwitch(sw))

	stale, err := s.FindSwitch(sw.ID)
	require.NoError(t, err)
	current, err := s.FindSwitch(sw.ID)
	require.NoError(t, err)

	updated := *current
	updated.Description = "first writer"
	require.NoError(t, s.UpdateSwitch(current, &updated))

	conflicting := *stale
	conflicting.Description = "second writer"
	err = s.UpdateSwitch(stale, &conflicting)
	require.Error(t, err)
	require.True(t, topo.IsConflict(err))
}

func TestDeleteSwitch(t *testing.T) {
	s := testStore()
	sw := topo.NewSwitch(0x1, "conn-1", topo.OF13, nil)
	require.NoError(t, s.CreateSwitch(sw))

	require.NoError(t, s.DeleteSwitch(sw))

	_, err := s.FindSwitch(sw.ID)
	require.True(t, topo.IsNotFound(err))
	require.True(t, topo.IsNotFound(s.DeleteSwitch(sw)))
}

func TestSetConnectedIgnoresStaleConnection(t *testing.T) {
	s := testStore()
	sw := s.UpsertSwitch(topo.NewSwitch(0x1, "conn-1", topo.OF13, nil))

	// reconnect under a new connection id
	s.UpsertSwitch(topo.NewSwitch(0x1, "conn-2", topo.OF13, nil))

	// the old connection closing late must not disconnect the switch
	require.NoError(t, s.SetConnected(sw.ID, "conn-1", false))
	cur, err := s.FindSwitch(sw.ID)
	require.NoError(t, err)
	require.True(t, cur.Connected)

	require.NoError(t, s.SetConnected(sw.ID, "conn-2", false))
	cur, err = s.FindSwitch(sw.ID)
	require.NoError(t, err)
	require.False(t, cur.Connected)
}

func TestSetAndRemovePort(t *testing.T) {
	s := testStore()
	sw := s.UpsertSwitch(topo.NewSwitch(0x1, "conn-1", topo.OF13, topo.Ports{{No: 1, Name: "eth1"}}))

	require.NoError(t, s.SetPort(sw.ID, topo.Port{No: 2, Name: "eth2", Up: true}))
	require.NoError(t, s.SetPort(sw.ID, topo.Port{No: 1, Name: "eth1", Up: true}))

	cur, err := s.FindSwitch(sw.ID)
	require.NoError(t, err)
	want := topo.Ports{
		{No: 1, Name: "eth1", Up: true},
		{No: 2, Name: "eth2", Up: true},
	}
	if diff := cmp.Diff(want, cur.Ports); diff != "" {
		t.Errorf("port table diff (-want +got):\n%s", diff)
	}

	require.NoError(t, s.RemovePort(sw.ID, 1))
	cur, err = s.FindSwitch(sw.ID)
	require.NoError(t, err)
	require.Len(t, cur.Ports, 1)

	require.True(t, topo.IsNotFound(s.SetPort("unknown", topo.Port{No: 1})))
}

func TestConnectedCount(t *testing.T) {
	s := testStore()
	require.Equal(t, 0, s.ConnectedCount())

	a := s.UpsertSwitch(topo.NewSwitch(0x1, "conn-1", topo.OF13, nil))
	s.UpsertSwitch(topo.NewSwitch(0x2, "conn-2", topo.OF10, nil))
	require.Equal(t, 2, s.ConnectedCount())

	require.NoError(t, s.SetConnected(a.ID, "conn-1", false))
	require.Equal(t, 1, s.ConnectedCount())
}
