package spatial_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/engine/spatial"
)

func TestCellID_Deterministic(t *testing.T) {
	at := domain.LatLon{Lat: 47.3701, Lon: 8.5401}
	require.Equal(t, spatial.CellID(at), spatial.CellID(at))

	// Positions within the same cell share an ID.
	nearby := domain.LatLon{Lat: 47.3702, Lon: 8.5402}
	require.Equal(t, spatial.CellID(at), spatial.CellID(nearby))

	// Negative coordinates floor toward negative infinity.
	require.Equal(t, "-1_-1", spatial.CellID(domain.LatLon{Lat: -0.0001, Lon: -0.0001}))
}

func TestCellIDs_CoversBox(t *testing.T) {
	sw := domain.LatLon{Lat: 0.0001, Lon: 0.0001}
	ne := domain.LatLon{Lat: 0.0041, Lon: 0.0021}

	ids := spatial.CellIDs(sw, ne)
	require.Len(t, ids, 6)
	require.Contains(t, ids, "0_0")
	require.Contains(t, ids, "1_2")
	require.Contains(t, ids, spatial.CellID(sw))
	require.Contains(t, ids, spatial.CellID(ne))
}

func TestCellBounds_RoundTrip(t *testing.T) {
	at := domain.LatLon{Lat: 47.3701, Lon: 8.5401}
	id := spatial.CellID(at)

	sw, ne, err := spatial.CellBounds(id)
	require.NoError(t, err)
	require.LessOrEqual(t, sw.Lat, at.Lat)
	require.LessOrEqual(t, sw.Lon, at.Lon)
	require.Greater(t, ne.Lat, at.Lat)
	require.Greater(t, ne.Lon, at.Lon)
	require.Equal(t, id, spatial.CellID(sw))
}

func TestCellBounds_Malformed(t *testing.T) {
	_, _, err := spatial.CellBounds("not-a-cell")
	require.Error(t, err)
}
