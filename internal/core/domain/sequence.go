package domain

import "slices"

// Sequence is an ordered capture path of node keys. The key order is the
// capture order and is load-bearing for sequence-edge computation.
// A Sequence is immutable once loaded.
type Sequence struct {
	Key  string   `json:"key"`
	Keys []string `json:"keys"`
}

// Contains reports whether the sequence contains the given node key.
func (s *Sequence) Contains(key string) bool {
	return slices.Contains(s.Keys, key)
}

// Prev returns the key preceding the given key, or "" at the sequence start
// or when the key is not a member.
func (s *Sequence) Prev(key string) string {
	i := slices.Index(s.Keys, key)
	if i <= 0 {
		return ""
	}
	return s.Keys[i-1]
}

// Next returns the key following the given key, or "" at the sequence end
// or when the key is not a member.
func (s *Sequence) Next(key string) string {
	i := slices.Index(s.Keys, key)
	if i < 0 || i == len(s.Keys)-1 {
		return ""
	}
	return s.Keys[i+1]
}
