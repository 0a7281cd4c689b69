// Package spatial provides the bounding-box index over node coordinates and
// the tile-cell arithmetic used to page node stubs into the graph.
package spatial

import (
	"github.com/dhconnelly/rtreego"
	"go.trai.ch/streetgraph/internal/core/domain"
)

// pointTol is the rectangle side length used to index point entries.
const pointTol = 1e-9

// Index is an R-tree over node geographic coordinates. Entries are inserted
// once per node when the node becomes known and are never removed
// individually; a context switch replaces the whole index.
type Index struct {
	tree *rtreego.Rtree
}

type entry struct {
	key   string
	point rtreego.Point
}

func (e *entry) Bounds() rtreego.Rect {
	return e.point.ToRect(pointTol)
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 8, 16)}
}

// Insert adds a node key at the given coordinate.
func (i *Index) Insert(key string, at domain.LatLon) {
	i.tree.Insert(&entry{key: key, point: rtreego.Point{at.Lon, at.Lat}})
}

// Search returns the keys of all entries inside the bounding box spanned by
// the south-west and north-east corners.
func (i *Index) Search(sw, ne domain.LatLon) []string {
	rect, err := rtreego.NewRect(
		rtreego.Point{sw.Lon, sw.Lat},
		[]float64{ne.Lon - sw.Lon, ne.Lat - sw.Lat},
	)
	if err != nil {
		return nil
	}
	matches := i.tree.SearchIntersect(rect)
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, m.(*entry).key)
	}
	return keys
}

// Len returns the number of indexed entries.
func (i *Index) Len() int {
	return i.tree.Size()
}
