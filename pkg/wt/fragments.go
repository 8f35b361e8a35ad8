// fragments.go stores detached forests produced by nested parses until
// they are spliced back into their containing document.
package wt

import "golang.org/x/net/html"

// FragmentStore maps fragment ids to forests.
type FragmentStore struct {
	fragments map[string][]*html.Node
}

// NewFragmentStore returns an empty store.
func NewFragmentStore() *FragmentStore {
	return &FragmentStore{fragments: make(map[string][]*html.Node)}
}

// Set stores forest under id, replacing any previous value.
func (s *FragmentStore) Set(id string, forest []*html.Node) {
	s.fragments[id] = forest
}

// Get returns the forest stored under id.
func (s *FragmentStore) Get(id string) ([]*html.Node, error) {
	forest, ok := s.fragments[id]
	if !ok {
		return nil, &NotFoundError{Kind: "fragment", Key: id}
	}
	return forest, nil
}

// Take returns the forest stored under id and forgets it, so each
// fragment is spliced at most once.
func (s *FragmentStore) Take(id string) ([]*html.Node, error) {
	forest, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	delete(s.fragments, id)
	return forest, nil
}

// Len returns the number of stored fragments.
func (s *FragmentStore) Len() int {
	return len(s.fragments)
}
