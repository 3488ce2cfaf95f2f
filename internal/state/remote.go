package state

import "sort"

// RemotePaths holds the open, not yet sealed, path of every peer that is
// currently drawing.
type RemotePaths struct {
	paths map[string][]TaggedPoint
}

func NewRemotePaths() *RemotePaths {
	return &RemotePaths{paths: make(map[string][]TaggedPoint)}
}

// Begin opens (or restarts) the peer's path at start.
func (r *RemotePaths) Begin(peer string, start TaggedPoint) {
	r.paths[peer] = []TaggedPoint{start}
}

// Extend appends pt to the peer's open path and returns the previous last
// point. ok is false when the peer has no open path; nothing is recorded then.
func (r *RemotePaths) Extend(peer string, pt TaggedPoint) (prev TaggedPoint, ok bool) {
	path, ok := r.paths[peer]
	if !ok || len(path) == 0 {
		return TaggedPoint{}, false
	}
	prev = path[len(path)-1]
	r.paths[peer] = append(path, pt)
	return prev, true
}

// End drops the peer's open path and reports whether there was one.
func (r *RemotePaths) End(peer string) bool {
	_, ok := r.paths[peer]
	delete(r.paths, peer)
	return ok
}

func (r *RemotePaths) Len() int {
	return len(r.paths)
}

// Reset discards every open path.
func (r *RemotePaths) Reset() {
	r.paths = make(map[string][]TaggedPoint)
}

// Each visits the open paths in peer id order.
func (r *RemotePaths) Each(fn func(peer string, path []TaggedPoint)) {
	peers := make([]string, 0, len(r.paths))
	for id := range r.paths {
		peers = append(peers, id)
	}
	sort.Strings(peers)
	for _, id := range peers {
		fn(id, r.paths[id])
	}
}
