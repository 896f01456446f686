// Package tagset implements small sets of mod-tag labels backed by roaring
// bitmaps. Tag names are interned into a process-global registry so that set
// operations (superset, equality) run on integer bitmaps instead of string
// slices, and so that a set has a stable canonical byte key for grouping.
package tagset

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	gojson "github.com/goccy/go-json"
)

// registry interns tag names to dense uint32 ids.
// Ids are assigned in first-seen order and never released.
var registry = struct {
	sync.RWMutex
	ids   map[string]uint32
	names []string
}{ids: make(map[string]uint32)}

func intern(tag string) uint32 {
	registry.RLock()
	id, ok := registry.ids[tag]
	registry.RUnlock()
	if ok {
		return id
	}

	registry.Lock()
	defer registry.Unlock()
	if id, ok := registry.ids[tag]; ok {
		return id
	}
	id = uint32(len(registry.names))
	registry.ids[tag] = id
	registry.names = append(registry.names, tag)
	return id
}

func nameOf(id uint32) string {
	registry.RLock()
	defer registry.RUnlock()
	return registry.names[id]
}

// Set is a set of interned tag labels.
// The zero value and nil are both usable as the empty set for reads.
type Set struct {
	rb *roaring.Bitmap
}

// New creates a Set containing the given tags.
func New(tags ...string) *Set {
	s := &Set{rb: roaring.New()}
	for _, tag := range tags {
		s.rb.Add(intern(tag))
	}
	return s
}

// Add adds a tag to the set.
func (s *Set) Add(tag string) {
	if s.rb == nil {
		s.rb = roaring.New()
	}
	s.rb.Add(intern(tag))
}

// Contains reports whether the set contains the tag.
func (s *Set) Contains(tag string) bool {
	if s.empty() {
		return false
	}
	registry.RLock()
	id, ok := registry.ids[tag]
	registry.RUnlock()
	if !ok {
		return false
	}
	return s.rb.Contains(id)
}

// Len returns the number of tags in the set.
func (s *Set) Len() int {
	if s.empty() {
		return 0
	}
	return int(s.rb.GetCardinality())
}

// SupersetOf reports whether s contains every tag of other.
func (s *Set) SupersetOf(other *Set) bool {
	if other.empty() {
		return true
	}
	if s.empty() {
		return false
	}
	return s.rb.AndCardinality(other.rb) == other.rb.GetCardinality()
}

// Equal reports whether both sets contain exactly the same tags.
func (s *Set) Equal(other *Set) bool {
	if s.empty() {
		return other.empty()
	}
	if other.empty() {
		return false
	}
	return s.rb.Equals(other.rb)
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	if s.empty() {
		return New()
	}
	return &Set{rb: s.rb.Clone()}
}

// Key returns a canonical byte-key for the set contents, suitable for use
// inside a comparable grouping key. Ids are emitted in ascending order with a
// fixed-width encoding, so equal sets always produce equal keys.
func (s *Set) Key() string {
	if s.empty() {
		return ""
	}
	buf := make([]byte, 0, 4*s.rb.GetCardinality())
	it := s.rb.Iterator()
	for it.HasNext() {
		buf = binary.BigEndian.AppendUint32(buf, it.Next())
	}
	return string(buf)
}

// Names returns the tag names in the set, sorted lexicographically.
func (s *Set) Names() []string {
	if s.empty() {
		return nil
	}
	names := make([]string, 0, s.rb.GetCardinality())
	it := s.rb.Iterator()
	for it.HasNext() {
		names = append(names, nameOf(it.Next()))
	}
	sort.Strings(names)
	return names
}

func (s *Set) empty() bool {
	return s == nil || s.rb == nil || s.rb.IsEmpty()
}

// MarshalJSON encodes the set as a sorted array of tag names.
// Bitmap ids are process-local, so the wire format uses names.
func (s *Set) MarshalJSON() ([]byte, error) {
	names := s.Names()
	if names == nil {
		names = []string{}
	}
	return gojson.Marshal(names)
}

// UnmarshalJSON decodes a tag-name array, re-interning names locally.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := gojson.Unmarshal(data, &names); err != nil {
		return err
	}
	s.rb = roaring.New()
	for _, name := range names {
		s.rb.Add(intern(name))
	}
	return nil
}
