package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cuckoochain/node/blockchain"
	"github.com/cuckoochain/node/mempool"
	"github.com/cuckoochain/node/p2p"
	"github.com/cuckoochain/node/txscript"
	"github.com/cuckoochain/node/wire"
)

// nodeCmd implements `cuckoochain node`: boots chainstate, mempool, and the
// P2P service, then serves until interrupted.
type nodeCmd struct {
	opts *globalOptions

	ListenAddr              string   `long:"listen" description:"address to accept inbound peer connections on" default:":9833"`
	ConnectAddrs            []string `long:"connect" description:"address of a peer to dial at startup (repeatable)"`
	MaxMempoolBytes         int      `long:"max-tx-bytes" description:"per-transaction size limit admitted to the mempool" default:"100000"`
	MaxMempoolEntries       int      `long:"max-mempool-entries" description:"mempool capacity" default:"50000"`
	AllowUnconfirmedParents bool     `long:"allow-unconfirmed-parents" description:"tolerate (but do not admit) transactions referencing unconfirmed parents"`
	EnforceSignatures       bool     `long:"enforce-signatures" description:"verify Ed25519 signatures during block validation" default:"true"`
	SubmitBlockFile         string   `long:"submit-block" description:"path to a fully serialized block (see wire.MsgBlock.Serialize) to accept and flood-relay at startup"`
	SubmitTxFile            string   `long:"submit-tx" description:"path to a serialized transaction to admit and flood-relay at startup"`
}

func (c *nodeCmd) Execute(_ []string) error {
	params, err := c.opts.params()
	if err != nil {
		return err
	}
	dataDir, err := c.opts.dataDir()
	if err != nil {
		return err
	}
	closer, err := initLogging(dataDir, c.opts.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := blockchain.NewStorage(filepath.Join(dataDir, "chain"))
	if err != nil {
		return err
	}
	defer store.Close()

	sigCache, err := txscript.NewSigCache(100000)
	if err != nil {
		return err
	}

	chain, err := blockchain.New(blockchain.Config{
		Params:            params,
		Store:             store,
		SigCache:          sigCache,
		EnforceSignatures: c.EnforceSignatures,
	})
	if err != nil {
		return err
	}

	pool := mempool.New(mempool.Limits{
		MaxTxBytes: c.MaxMempoolBytes,
		MaxEntries: c.MaxMempoolEntries,
	}, chain, c.AllowUnconfirmedParents)

	nodeID, err := randomNodeID()
	if err != nil {
		return err
	}

	svc := p2p.New(p2p.Config{
		NetworkID: params.NetworkID,
		NodeID:    nodeID,
		Chain:     chain,
		Pool:      pool,
	})

	ln, err := net.Listen("tcp", c.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		if err := svc.Serve(ln); err != nil {
			fmt.Fprintf(os.Stderr, "p2p: listener closed: %v\n", err)
		}
	}()

	for _, addr := range c.ConnectAddrs {
		if err := svc.Connect(addr); err != nil {
			fmt.Fprintf(os.Stderr, "p2p: connect %s: %v\n", addr, err)
		}
	}

	if c.SubmitBlockFile != "" {
		if err := submitBlockFile(svc, c.SubmitBlockFile); err != nil {
			return err
		}
	}
	if c.SubmitTxFile != "" {
		if err := submitTxFile(svc, c.SubmitTxFile); err != nil {
			return err
		}
	}

	hash, height, totalWork, bits := chain.BestTip()
	fmt.Printf("node %s listening on %s, tip %s at height %d (work %d, bits %08x)\n",
		nodeID, c.ListenAddr, hash, height, totalWork, bits)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}

// submitBlockFile reads a fully serialized block from path and feeds it
// through the running node's own accept-and-relay path, the glue a locally
// mined block needs to ever reach ChainState.AcceptBlock or a peer.
func submitBlockFile(svc *p2p.Service, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	blk, err := wire.DeserializeBlock(b)
	if err != nil {
		return err
	}
	result, err := svc.SubmitBlock(blk)
	if err != nil {
		return fmt.Errorf("submit-block: %w", err)
	}
	fmt.Printf("submit-block: %s -> %v\n", path, result)
	return nil
}

// submitTxFile reads a serialized transaction from path and admits it into
// the running node's mempool, relaying it to peers on acceptance.
func submitTxFile(svc *p2p.Service, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := txscript.DeserializeTx(b)
	if err != nil {
		return err
	}
	result, err := svc.SubmitTx(tx)
	if err != nil {
		return fmt.Errorf("submit-tx: %w", err)
	}
	fmt.Printf("submit-tx: %s -> %v\n", path, result)
	return nil
}

func randomNodeID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
