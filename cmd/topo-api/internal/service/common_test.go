package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/inventory"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInventory(t *testing.T, switches ...*topo.Switch) *inventory.Store {
	t.Helper()
	inv := inventory.New(testLog())
	for _, sw := range switches {
		require.NoError(t, inv.CreateSwitch(sw))
	}
	return inv
}
