package txscript

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/dchest/siphash"

	"github.com/cuckoochain/node/chainhash"
)

// ProactiveEvictionDepth is the depth of the block at which the signatures
// for the transactions within the block are nearly guaranteed to no longer
// be useful.
const ProactiveEvictionDepth = 2

// shortTxHashKeySize is the size of the key material for the SipHash keyed
// shortTxHash function.
const shortTxHashKeySize = 16

// sigCacheEntry is one cached verification result. Entries are keyed by the
// sighash digest; on a key collision the signature and public key are
// compared byte-for-byte before treating it as a hit.
type sigCacheEntry struct {
	sig         []byte
	pubKey      []byte
	shortTxHash uint64
}

// SigCache implements an Ed25519 signature verification cache with a
// randomized entry eviction policy. Only valid signatures are added. This
// mitigates repeated re-verification of the same signature across mempool
// admission and block validation, and protects against a victim spending
// CPU re-validating already-seen signatures from attacker-crafted
// transactions.
type SigCache struct {
	sync.RWMutex
	validSigs      map[chainhash.Hash]sigCacheEntry
	maxEntries     uint
	shortTxHashKey [shortTxHashKeySize]byte
}

// NewSigCache creates a SigCache holding at most maxEntries entries. Random
// entries are evicted to make room for new ones once the cache is full.
func NewSigCache(maxEntries uint) (*SigCache, error) {
	key, err := createShortTxHashKey()
	if err != nil {
		return nil, err
	}
	return &SigCache{
		validSigs:      make(map[chainhash.Hash]sigCacheEntry, maxEntries),
		maxEntries:     maxEntries,
		shortTxHashKey: key,
	}, nil
}

// Exists reports whether a cached, already-verified entry for (sigHash, sig,
// pubKey) is present.
//
// Safe for concurrent access; readers are not blocked except by a writer.
func (s *SigCache) Exists(sigHash chainhash.Hash, sig, pubKey []byte) bool {
	s.RLock()
	entry, ok := s.validSigs[sigHash]
	s.RUnlock()

	return ok && bytes.Equal(entry.pubKey, pubKey) && bytes.Equal(entry.sig, sig)
}

// Add records a verified (sigHash, sig, pubKey) triple, evicting a random
// existing entry first if the cache is full.
//
// Safe for concurrent access; writers block simultaneous readers.
func (s *SigCache) Add(sigHash chainhash.Hash, sig, pubKey []byte, tx *MsgTx) {
	s.Lock()
	defer s.Unlock()

	if s.maxEntries == 0 {
		return
	}

	if uint(len(s.validSigs)+1) > s.maxEntries {
		// Evict one entry at Go's random map-iteration starting point.
		// Manipulating which entry this evicts would require a preimage
		// attack on the hash used to key the map.
		for k := range s.validSigs {
			delete(s.validSigs, k)
			break
		}
	}

	sigCopy := append([]byte(nil), sig...)
	pubCopy := append([]byte(nil), pubKey...)
	s.validSigs[sigHash] = sigCacheEntry{
		sig:         sigCopy,
		pubKey:      pubCopy,
		shortTxHash: shortTxHash(tx, s.shortTxHashKey),
	}
}

func createShortTxHashKey() ([shortTxHashKeySize]byte, error) {
	var key [shortTxHashKeySize]byte
	_, err := rand.Read(key[:])
	return key, err
}

// shortTxHash derives a 64-bit SipHash-2-4 digest of the tx id, keyed by a
// per-process random key, for compact membership testing during proactive
// eviction.
func shortTxHash(tx *MsgTx, key [shortTxHashKeySize]byte) uint64 {
	k0 := binary.LittleEndian.Uint64(key[0:8])
	k1 := binary.LittleEndian.Uint64(key[8:16])
	txHash := tx.TxHash()
	return siphash.Hash(k0, k1, txHash[:])
}

// EvictEntries removes all entries corresponding to transactions in txs.
// The caller should pass the transactions of a block ProactiveEvictionDepth
// blocks deep, the point at which their signatures are nearly guaranteed to
// no longer be useful.
//
// Runs asynchronously; a no-op if the cache is currently empty, to avoid
// spinning up a goroutine on every block during steady-state sync.
func (s *SigCache) EvictEntries(txs []*MsgTx) {
	s.RLock()
	empty := len(s.validSigs) == 0
	s.RUnlock()
	if empty {
		return
	}
	go s.evictEntries(txs)
}

func (s *SigCache) evictEntries(txs []*MsgTx) {
	shortTxHashSet := make(map[uint64]struct{}, len(txs))
	for _, tx := range txs {
		shortTxHashSet[shortTxHash(tx, s.shortTxHashKey)] = struct{}{}
	}

	s.Lock()
	for sigHash, entry := range s.validSigs {
		if _, ok := shortTxHashSet[entry.shortTxHash]; ok {
			delete(s.validSigs, sigHash)
		}
	}
	s.Unlock()
}
