package tasks

// SelectionChange is one membership change that should be mirrored to the backend.
type SelectionChange struct {
	VideoID  string
	Selected bool
}

// SelectionSet is a set of video ids with shift-range semantics over an ordered sequence.
//
// The anchor is the index of the last single toggle within the ordered sequence the caller passes in.
// Range toggles extend from the anchor and never move it. SelectionSet is not safe for concurrent use.
type SelectionSet struct {
	ids         map[string]struct{}
	anchorIndex int
	anchorID    string
}

// NewSelectionSet returns an empty set with no anchor.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: map[string]struct{}{}, anchorIndex: -1}
}

// Has reports membership.
func (s *SelectionSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int { return len(s.ids) }

// Anchor returns the range anchor index, if any.
func (s *SelectionSet) Anchor() (int, bool) {
	return s.anchorIndex, s.anchorIndex >= 0
}

// IDs returns the selected ids that appear in ordered, in that order.
func (s *SelectionSet) IDs(ordered []string) []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range ordered {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Toggle flips membership of id and moves the anchor to index.
func (s *SelectionSet) Toggle(id string, index int) SelectionChange {
	selected := !s.Has(id)
	if selected {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
	s.anchorIndex = index
	s.anchorID = id
	return SelectionChange{VideoID: id, Selected: selected}
}

// ToggleRange adds every id of ordered between anchorIndex and targetIndex inclusive.
//
// Nothing is removed and the anchor does not move. The returned changes list only ids that were not already selected.
func (s *SelectionSet) ToggleRange(anchorIndex, targetIndex int, ordered []string) []SelectionChange {
	lo, hi := anchorIndex, targetIndex
	if lo > hi {
		lo, hi = hi, lo
	}
	lo = max(lo, 0)
	hi = min(hi, len(ordered)-1)

	var added []SelectionChange
	for i := lo; i <= hi; i++ {
		id := ordered[i]
		if s.Has(id) {
			continue
		}
		s.ids[id] = struct{}{}
		added = append(added, SelectionChange{VideoID: id, Selected: true})
	}
	return added
}

// ExtendTo range-toggles from the current anchor to targetIndex.
// ok is false when there is no anchor, in which case nothing changes.
func (s *SelectionSet) ExtendTo(targetIndex int, ordered []string) (added []SelectionChange, ok bool) {
	if s.anchorIndex < 0 {
		return nil, false
	}
	return s.ToggleRange(s.anchorIndex, targetIndex, ordered), true
}

// SelectAll sets membership to exactly ordered and clears the anchor.
func (s *SelectionSet) SelectAll(ordered []string) {
	s.ids = make(map[string]struct{}, len(ordered))
	for _, id := range ordered {
		s.ids[id] = struct{}{}
	}
	s.clearAnchor()
}

// Clear empties the set and clears the anchor.
func (s *SelectionSet) Clear() {
	s.ids = map[string]struct{}{}
	s.clearAnchor()
}

// Add selects ids without touching the anchor and returns the ids that were newly added.
func (s *SelectionSet) Add(ids ...string) []string {
	var added []string
	for _, id := range ids {
		if !s.Has(id) {
			s.ids[id] = struct{}{}
			added = append(added, id)
		}
	}
	return added
}

// Remove deselects ids without touching the anchor.
func (s *SelectionSet) Remove(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Prune drops every id not in valid and re-resolves the anchor against valid.
//
// The anchor follows its video: it is moved to that video's new index, or cleared when the video is gone.
func (s *SelectionSet) Prune(valid []string) []string {
	index := make(map[string]int, len(valid))
	for i, id := range valid {
		index[id] = i
	}

	var removed []string
	for id := range s.ids {
		if _, ok := index[id]; !ok {
			delete(s.ids, id)
			removed = append(removed, id)
		}
	}

	if s.anchorID != "" {
		if i, ok := index[s.anchorID]; ok {
			s.anchorIndex = i
		} else {
			s.clearAnchor()
		}
	}
	return removed
}

func (s *SelectionSet) clearAnchor() {
	s.anchorIndex = -1
	s.anchorID = ""
}
