package blockchain

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/wire"
)

// metaFile holds the persisted best-hash marker, per spec.md §4.7's
// persistence contract: "blocks/<hash>.blk" files plus a best-hash meta
// file.
type metaFile struct {
	BestHashHex string `json:"bestHashHex"`
}

// Storage is the authoritative flat-file persistence layer: one file per
// block hash plus a best-hash meta file, as spec.md §6 requires. It also
// keeps an auxiliary LevelDB index of hash->parent-hash, written by
// PutBlock. The index is never the source of truth: the startup replay
// reads only the flat files, and nothing in this package reads or rebuilds
// the index.
type Storage struct {
	baseDir   string
	blocksDir string
	index     *leveldb.DB
}

// NewStorage opens (creating if necessary) the flat-file store and its
// auxiliary index under baseDir.
func NewStorage(baseDir string) (*Storage, error) {
	blocksDir := filepath.Join(baseDir, "blocks")
	if err := os.MkdirAll(blocksDir, 0o755); err != nil {
		return nil, err
	}
	indexDir := filepath.Join(baseDir, "index")
	db, err := leveldb.OpenFile(indexDir, nil)
	if err != nil {
		return nil, fmt.Errorf("blockchain: opening chain index cache: %w", err)
	}
	return &Storage{baseDir: baseDir, blocksDir: blocksDir, index: db}, nil
}

// Close releases the auxiliary index's resources.
func (s *Storage) Close() error {
	return s.index.Close()
}

func (s *Storage) blockPath(hash chainhash.Hash) string {
	return filepath.Join(s.blocksDir, hash.String()+".blk")
}

// PutBlock writes blk to "blocks/<hash>.blk" via write-then-rename for
// atomicity, and records its parent-hash in the auxiliary index.
func (s *Storage) PutBlock(blk *wire.MsgBlock) error {
	hash := blk.BlockHash()
	path := s.blockPath(hash)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, blk.Serialize(), 0o644); err != nil {
		return fmt.Errorf("blockchain: writing block file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("blockchain: renaming block file: %w", err)
	}

	if err := s.index.Put(hash[:], blk.Header.PrevHash[:], nil); err != nil {
		log.Warnf("chain index cache write failed for %s: %v", hash, err)
	}
	return nil
}

// GetBlock reads and decodes the block stored under hash, if present.
func (s *Storage) GetBlock(hash chainhash.Hash) (*wire.MsgBlock, bool, error) {
	b, err := os.ReadFile(s.blockPath(hash))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	blk, err := wire.DeserializeBlock(b)
	if err != nil {
		return nil, false, err
	}
	return blk, true, nil
}

// ListBlocks reads and decodes every persisted block.
func (s *Storage) ListBlocks() ([]*wire.MsgBlock, error) {
	entries, err := os.ReadDir(s.blocksDir)
	if err != nil {
		return nil, err
	}
	var blocks []*wire.MsgBlock
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".blk" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.blocksDir, e.Name()))
		if err != nil {
			return nil, err
		}
		blk, err := wire.DeserializeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("blockchain: decoding %s: %w", e.Name(), err)
		}
		blocks = append(blocks, blk)
	}
	return blocks, nil
}

// PutBestHash atomically persists the best-hash meta file.
func (s *Storage) PutBestHash(hash chainhash.Hash) error {
	path := filepath.Join(s.baseDir, "meta.json")
	tmp := path + ".tmp"
	b, err := json.Marshal(metaFile{BestHashHex: hash.String()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadBestHash reads the persisted best-hash marker, if any.
func (s *Storage) LoadBestHash() (chainhash.Hash, bool, error) {
	b, err := os.ReadFile(filepath.Join(s.baseDir, "meta.json"))
	if os.IsNotExist(err) {
		return chainhash.Hash{}, false, nil
	}
	if err != nil {
		return chainhash.Hash{}, false, err
	}
	var m metaFile
	if err := json.Unmarshal(b, &m); err != nil {
		return chainhash.Hash{}, false, err
	}
	h, err := chainhash.NewHashFromStr(m.BestHashHex)
	if err != nil {
		return chainhash.Hash{}, false, err
	}
	return h, true, nil
}

// replay re-validates every persisted non-genesis block against its parent
// in topological order, rebuilding UTXO snapshots and repairing the
// best-hash marker. Aborts (returns an error) if any block fails to
// validate, per spec.md §4.7's restart contract.
func (cs *ChainState) replay() error {
	blocks, err := cs.store.ListBlocks()
	if err != nil {
		return err
	}

	pending := make(map[chainhash.Hash]*wire.MsgBlock, len(blocks))
	for _, blk := range blocks {
		hash := blk.BlockHash()
		if hash == cs.params.GenesisHash {
			continue
		}
		pending[hash] = blk
	}

	for len(pending) > 0 {
		progressed := false
		for hash, blk := range pending {
			if _, ok := cs.nodes[blk.Header.PrevHash]; !ok {
				continue
			}
			result, orphanParent, err := cs.acceptLocked(blk, math.MaxInt64/2)
			if err != nil {
				return fmt.Errorf("replay: block %s failed validation: %w", hash, err)
			}
			if result == AcceptResultOrphan {
				return fmt.Errorf("replay: block %s unexpectedly orphaned on parent %s", hash, orphanParent)
			}
			delete(pending, hash)
			progressed = true
		}
		if !progressed {
			return fmt.Errorf("replay: %d persisted blocks never linked to genesis", len(pending))
		}
	}

	bestHash, ok, err := cs.store.LoadBestHash()
	if err != nil {
		return err
	}
	if !ok || bestHash != cs.bestHash {
		log.Infof("repairing stale best-hash marker")
		if err := cs.store.PutBestHash(cs.bestHash); err != nil {
			return err
		}
	}

	return nil
}
