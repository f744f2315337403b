package pbvh

// handleSet is an insertion ordered set of mesh element handles with
// constant time add, remove and membership tests. Removal moves the last
// element into the removed slot.
type handleSet struct {
	items []int
	index map[int]int
}

func newHandleSet(capacity int) *handleSet {
	return &handleSet{
		items: make([]int, 0, capacity),
		index: make(map[int]int, capacity),
	}
}

// Add h to the set. Returns false if it was already present.
func (s *handleSet) Add(h int) bool {
	if _, ok := s.index[h]; ok {
		return false
	}
	s.index[h] = len(s.items)
	s.items = append(s.items, h)
	return true
}

// Remove h from the set. Returns false if it was not present.
func (s *handleSet) Remove(h int) bool {
	pos, ok := s.index[h]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if pos != last {
		moved := s.items[last]
		s.items[pos] = moved
		s.index[moved] = pos
	}
	s.items = s.items[:last]
	delete(s.index, h)
	return true
}

func (s *handleSet) Contains(h int) bool {
	_, ok := s.index[h]
	return ok
}

func (s *handleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the set contents. The slice is invalidated by Add and Remove.
func (s *handleSet) Items() []int {
	if s == nil {
		return nil
	}
	return s.items
}
