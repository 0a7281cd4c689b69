package spatial

import (
	"fmt"
	"math"

	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/zerr"
)

var errMalformedCellID = zerr.New("malformed cell id")

// cellSizeDeg is the edge length of a tile cell in degrees, roughly 220 m
// of latitude.
const cellSizeDeg = 0.002

// CellID returns the tile cell containing the coordinate.
func CellID(at domain.LatLon) string {
	x := int(math.Floor(at.Lon / cellSizeDeg))
	y := int(math.Floor(at.Lat / cellSizeDeg))
	return fmt.Sprintf("%d_%d", x, y)
}

// CellIDs returns every cell overlapping the bounding box spanned by the
// south-west and north-east corners.
func CellIDs(sw, ne domain.LatLon) []string {
	x0 := int(math.Floor(sw.Lon / cellSizeDeg))
	x1 := int(math.Floor(ne.Lon / cellSizeDeg))
	y0 := int(math.Floor(sw.Lat / cellSizeDeg))
	y1 := int(math.Floor(ne.Lat / cellSizeDeg))

	ids := make([]string, 0, (x1-x0+1)*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			ids = append(ids, fmt.Sprintf("%d_%d", x, y))
		}
	}
	return ids
}

// CellBounds returns the south-west and north-east corners of a cell.
func CellBounds(id string) (sw, ne domain.LatLon, err error) {
	var x, y int
	if _, err = fmt.Sscanf(id, "%d_%d", &x, &y); err != nil {
		return domain.LatLon{}, domain.LatLon{}, domain.WithDetail(errMalformedCellID, "id", id)
	}
	sw = domain.LatLon{Lat: float64(y) * cellSizeDeg, Lon: float64(x) * cellSizeDeg}
	ne = domain.LatLon{Lat: sw.Lat + cellSizeDeg, Lon: sw.Lon + cellSizeDeg}
	return sw, ne, nil
}
