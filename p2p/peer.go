package p2p

import (
	"crypto/rand"
	"encoding/hex"
	"net"

	"github.com/cuckoochain/node/wire"
)

// Peer owns one connection and its receive buffer. Cancellation of a
// session (transport error or an oversized frame) removes the peer from
// the service's table and releases these resources.
type Peer struct {
	id     string
	peerID string
	conn   net.Conn
	fr     *wire.FrameReader
	fw     *wire.FrameWriter

	sawVersion bool
	sawVerack  bool
}

func newPeer(conn net.Conn) *Peer {
	return &Peer{
		id:   randomPeerID(),
		conn: conn,
		fr:   wire.NewFrameReader(conn),
		fw:   wire.NewFrameWriter(conn),
	}
}

func randomPeerID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// complete reports whether this peer's handshake has finished, per
// spec.md §4.9's state machine.
func (p *Peer) complete() bool {
	return p.sawVersion && p.sawVerack
}

func (p *Peer) sendVersion(networkID, nodeID string, tip wire.Message) error {
	return p.fw.WriteMessage(wire.NewVersionMessage(networkID, nodeID, tip.Height, tip.HashHex))
}

func (p *Peer) close() {
	_ = p.conn.Close()
}
