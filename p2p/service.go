// Package p2p implements the framed JSON gossip transport: handshake, tip
// sync, block backfill, and flood relay between peers.
package p2p

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dchest/siphash"
	"github.com/decred/slog"

	"github.com/cuckoochain/node/blockchain"
	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/mempool"
	"github.com/cuckoochain/node/txscript"
	"github.com/cuckoochain/node/wire"
)

// log is the package-wide subsystem logger.
var log = slog.Disabled

// UseLogger sets the logger used by this package.
func UseLogger(logger slog.Logger) {
	log = logger
}

// pendingTTL bounds how long a getBlock request waits for its reply before
// being eligible for re-request.
const pendingTTL = 30 * time.Second

// maxPending bounds the pending-request table; oldest entries are evicted
// first when full.
const maxPending = 4096

// maxInFlightHandlers bounds the number of concurrently running async
// message handlers. When saturated, new handlers are dropped (not queued).
const maxInFlightHandlers = 256

// Config bundles a Service's construction-time dependencies.
type Config struct {
	NetworkID string
	NodeID    string
	Chain     *blockchain.ChainState
	Pool      *mempool.Pool
}

// Service owns the peer table by id and coordinates handshake, tip sync,
// backfill, and relay across all connected peers.
type Service struct {
	cfg Config

	mu    sync.Mutex
	peers map[string]*Peer

	pendingMu sync.Mutex
	pending   map[uint64]pendingEntry
	dedupKey  [2]uint64

	handlerSlots chan struct{}
}

// pendingEntry is one outstanding getBlock request, stored under a siphash
// digest of its hash rather than the hash itself so the dedup table never
// holds attacker-influenced keys directly.
type pendingEntry struct {
	hash      chainhash.Hash
	expiresAt time.Time
}

// New creates a Service ready to accept or dial connections.
func New(cfg Config) *Service {
	var keyBytes [16]byte
	// A fixed key is sufficient here: this key only dedups in-process
	// pending-request bookkeeping, it is not a security boundary.
	copy(keyBytes[:], []byte(cfg.NodeID+"pending-request-key-pad"))

	return &Service{
		cfg:          cfg,
		peers:        make(map[string]*Peer),
		pending:      make(map[uint64]pendingEntry),
		dedupKey:     [2]uint64{siphash.Hash(0, 0, keyBytes[:8]), siphash.Hash(0, 0, keyBytes[8:16])},
		handlerSlots: make(chan struct{}, maxInFlightHandlers),
	}
}

// pendingKey derives the dedup-table key for hash.
func (s *Service) pendingKey(hash chainhash.Hash) uint64 {
	return siphash.Hash(s.dedupKey[0], s.dedupKey[1], hash[:])
}

// dispatch runs fn in a new goroutine if a handler slot is available,
// otherwise drops it with a log line, per spec.md §4.9's concurrency guard.
func (s *Service) dispatch(label string, fn func()) {
	select {
	case s.handlerSlots <- struct{}{}:
	default:
		log.Warnf("dropping %s handler: in-flight limit reached", label)
		return
	}
	go func() {
		defer func() { <-s.handlerSlots }()
		fn()
	}()
}

// Connect dials addr and begins a peer session as the initiating side.
func (s *Service) Connect(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	s.adopt(conn)
	return nil
}

// Serve accepts inbound connections on ln until it returns an error (e.g.
// on listener close).
func (s *Service) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.adopt(conn)
	}
}

func (s *Service) adopt(conn net.Conn) {
	p := newPeer(conn)
	s.mu.Lock()
	s.peers[p.id] = p
	s.mu.Unlock()

	go s.runPeer(p)
}

// runPeer drives one peer's receive loop until transport error, an
// oversized frame, or the peer disconnects; session cancellation always
// removes the peer from the table and releases its receive buffer.
func (s *Service) runPeer(p *Peer) {
	defer s.drop(p)

	if err := p.sendVersion(s.cfg.NetworkID, s.cfg.NodeID, s.localTip()); err != nil {
		return
	}

	for {
		msg, err := p.fr.ReadMessage()
		if err != nil {
			log.Debugf("peer %s: %v", p.id, err)
			return
		}
		if err := s.handleMessage(p, msg); err != nil {
			log.Debugf("peer %s: %v", p.id, err)
			return
		}
	}
}

func (s *Service) drop(p *Peer) {
	s.mu.Lock()
	delete(s.peers, p.id)
	s.mu.Unlock()
	p.close()
}

func (s *Service) localTip() wire.Message {
	hash, height, _, _ := s.cfg.Chain.BestTip()
	return wire.NewTipMessage(height, hash.String())
}

// handleMessage applies the handshake state machine and message-kind
// routing of spec.md §4.9. Version/verack transitions happen synchronously
// on the peer's own goroutine (they gate everything else on this session);
// chainstate/mempool work is handed to dispatch so a slow validation never
// blocks this peer's read loop indefinitely beyond the handler bound.
func (s *Service) handleMessage(p *Peer, msg wire.Message) error {
	switch msg.Kind {
	case wire.KindVersion:
		if p.sawVersion {
			return fmt.Errorf("duplicate version message")
		}
		if msg.NetworkID != s.cfg.NetworkID {
			return fmt.Errorf("network_id mismatch")
		}
		if msg.NodeID == s.cfg.NodeID {
			return fmt.Errorf("connected to self")
		}
		p.sawVersion = true
		p.peerID = msg.NodeID
		if err := p.fw.WriteMessage(wire.NewVerAckMessage()); err != nil {
			return err
		}
		return p.fw.WriteMessage(s.localTip())

	case wire.KindVerAck:
		if !p.sawVersion || p.sawVerack {
			return fmt.Errorf("verack out of sequence")
		}
		p.sawVerack = true
		return p.fw.WriteMessage(wire.NewGetTipMessage())

	case wire.KindPing:
		return p.fw.WriteMessage(wire.NewPongMessage(msg.Nonce))

	case wire.KindPong:
		return nil
	}

	if !p.complete() {
		return fmt.Errorf("message kind %s received before handshake completed", msg.Kind)
	}

	switch msg.Kind {
	case wire.KindGetTip:
		return p.fw.WriteMessage(s.localTip())

	case wire.KindTip:
		s.dispatch("tip", func() { s.onTip(p, msg) })
		return nil

	case wire.KindGetBlock:
		s.dispatch("getBlock", func() { s.onGetBlock(p, msg) })
		return nil

	case wire.KindBlock:
		s.dispatch("block", func() { s.onBlock(p, msg) })
		return nil

	case wire.KindTx:
		s.dispatch("tx", func() { s.onTx(p, msg) })
		return nil
	}

	return fmt.Errorf("unhandled message kind %s", msg.Kind)
}

func (s *Service) onTip(p *Peer, msg wire.Message) {
	_, myHeight, _, _ := s.cfg.Chain.BestTip()
	if msg.Height <= myHeight {
		return
	}
	hash, err := chainhash.NewHashFromStr(msg.HashHex)
	if err != nil {
		return
	}
	if s.cfg.Chain.HaveBlock(hash) {
		return
	}
	s.requestBlock(p, hash)
}

func (s *Service) onGetBlock(p *Peer, msg wire.Message) {
	hash, err := chainhash.NewHashFromStr(msg.HashHex)
	if err != nil {
		return
	}
	blk, ok, err := s.lookupBlock(hash)
	if err != nil || !ok {
		return
	}
	_ = p.fw.WriteMessage(wire.NewBlockMessage(blk.Serialize()))
}

func (s *Service) onBlock(p *Peer, msg wire.Message) {
	payload, err := msg.Payload()
	if err != nil {
		return
	}
	blk, err := wire.DeserializeBlock(payload)
	if err != nil {
		return
	}
	s.clearPending(blk.BlockHash())

	result, orphanParent, err := s.cfg.Chain.AcceptBlock(blk)
	if err != nil {
		log.Debugf("rejected block from %s: %v", p.id, err)
		return
	}
	switch result {
	case blockchain.AcceptResultOrphan:
		s.requestBlock(p, orphanParent)
	case blockchain.AcceptResultAccepted:
		for _, tx := range blk.Transactions {
			s.cfg.Pool.RemoveByTxid(tx.TxHash())
		}
		hash, height, _, _ := s.cfg.Chain.BestTip()
		if hash == blk.BlockHash() {
			s.broadcast(wire.NewTipMessage(height, hash.String()))
		}
	}
}

// SubmitBlock accepts a locally produced block into the chainstate and, on
// success, flood-relays the full serialized block to every connected peer,
// per spec.md §4.9's relay rule for locally accepted submissions. It never
// rejects an already-connected duplicate as a flood: a duplicate is simply
// not relayed again.
func (s *Service) SubmitBlock(blk *wire.MsgBlock) (blockchain.AcceptResult, error) {
	result, _, err := s.cfg.Chain.AcceptBlock(blk)
	if err != nil {
		return result, err
	}
	if result == blockchain.AcceptResultAccepted {
		for _, tx := range blk.Transactions {
			s.cfg.Pool.RemoveByTxid(tx.TxHash())
		}
		s.broadcast(wire.NewBlockMessage(blk.Serialize()))
	}
	return result, nil
}

// SubmitTx admits a locally produced transaction into the mempool and, on
// success, flood-relays it to every connected peer, per spec.md §4.9's
// relay rule for locally accepted submissions.
func (s *Service) SubmitTx(tx *txscript.MsgTx) (mempool.AdmitResult, error) {
	result, err := s.cfg.Pool.Admit(tx)
	if err != nil {
		return result, err
	}
	if result == mempool.AdmitResultAccepted {
		s.broadcast(wire.NewTxMessage(tx.Serialize()))
	}
	return result, nil
}

func (s *Service) onTx(p *Peer, msg wire.Message) {
	payload, err := msg.Payload()
	if err != nil {
		return
	}
	tx, err := txscript.DeserializeTx(payload)
	if err != nil {
		return
	}
	result, err := s.cfg.Pool.Admit(tx)
	if err != nil || result != mempool.AdmitResultAccepted {
		return
	}
	s.broadcast(msg)
}
