package p2p

import (
	"time"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/wire"
)

// requestBlock enqueues a getBlock request for hash if one is not already
// pending, per spec.md §4.9's tip-sync rule (used both for "peer's tip is
// ahead" and "chainstate reported an orphan parent").
func (s *Service) requestBlock(p *Peer, hash chainhash.Hash) {
	key := s.pendingKey(hash)

	s.pendingMu.Lock()
	if e, already := s.pending[key]; already && e.expiresAt.After(time.Now()) {
		s.pendingMu.Unlock()
		return
	}
	if len(s.pending) >= maxPending {
		s.evictOldestPendingLocked()
	}
	s.pending[key] = pendingEntry{hash: hash, expiresAt: time.Now().Add(pendingTTL)}
	s.pendingMu.Unlock()

	_ = p.fw.WriteMessage(wire.NewGetBlockMessage(hash.String()))
}

// clearPending removes hash from the pending-request table on the
// corresponding block's arrival.
func (s *Service) clearPending(hash chainhash.Hash) {
	key := s.pendingKey(hash)
	s.pendingMu.Lock()
	delete(s.pending, key)
	s.pendingMu.Unlock()
}

// evictOldestPendingLocked drops the entry with the soonest expiry to make
// room in a full pending table. Must be called with pendingMu held.
func (s *Service) evictOldestPendingLocked() {
	var oldestKey uint64
	var oldestAt time.Time
	first := true
	for k, e := range s.pending {
		if first || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, e.expiresAt, false
		}
	}
	if !first {
		delete(s.pending, oldestKey)
	}
}

// broadcast sends msg to every currently connected peer.
func (s *Service) broadcast(msg wire.Message) {
	s.mu.Lock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		_ = p.fw.WriteMessage(msg)
	}
}

// lookupBlock resolves hash against the chainstate's node map for a
// getBlock reply.
func (s *Service) lookupBlock(hash chainhash.Hash) (*wire.MsgBlock, bool, error) {
	blk, ok := s.cfg.Chain.Block(hash)
	return blk, ok, nil
}
