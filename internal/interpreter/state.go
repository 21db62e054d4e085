package interpreter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// State maps variable names to integers. Names that were never assigned read
// as 0, but only assigned names are listed.
type State struct {
	mappings map[string]int32
}

func NewState() *State {
	return &State{mappings: map[string]int32{}}
}

// StateOf builds a state holding the given bindings.
func StateOf(mappings map[string]int32) *State {
	return &State{mappings: lo.Assign(map[string]int32{}, mappings)}
}

func (s *State) Get(name string) int32 {
	return s.mappings[name]
}

func (s *State) Lookup(name string) (int32, bool) {
	v, ok := s.mappings[name]
	return v, ok
}

func (s *State) Set(name string, value int32) {
	s.mappings[name] = value
}

// Names returns the assigned names in sorted order.
func (s *State) Names() []string {
	names := lo.Keys(s.mappings)
	sort.Strings(names)
	return names
}

func (s *State) Len() int {
	return len(s.mappings)
}

// Map returns a copy of the bindings.
func (s *State) Map() map[string]int32 {
	return lo.Assign(map[string]int32{}, s.mappings)
}

func (s *State) Clone() *State {
	return StateOf(s.mappings)
}

func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.mappings) != len(other.mappings) {
		return false
	}
	for name, v := range s.mappings {
		if ov, ok := other.mappings[name]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the state as "[a -> 1, b -> 2]".
func (s *State) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, name := range s.Names() {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(" -> ")
		b.WriteString(strconv.FormatInt(int64(s.mappings[name]), 10))
	}
	b.WriteByte(']')
	return b.String()
}

func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.mappings)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var mappings map[string]int32
	if err := json.Unmarshal(b, &mappings); err != nil {
		return err
	}
	if mappings == nil {
		mappings = map[string]int32{}
	}
	s.mappings = mappings
	return nil
}
