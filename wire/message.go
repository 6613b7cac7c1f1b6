package wire

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// MaxFrameBytes bounds a single newline-delimited JSON message; a peer that
// sends a longer frame is disconnected, per spec.md §4.9.
const MaxFrameBytes = 32 * 1024 * 1024

// MessageKind discriminates the P2P message union.
type MessageKind string

const (
	KindVersion  MessageKind = "version"
	KindVerAck   MessageKind = "verack"
	KindPing     MessageKind = "ping"
	KindPong     MessageKind = "pong"
	KindGetTip   MessageKind = "getTip"
	KindTip      MessageKind = "tip"
	KindGetBlock MessageKind = "getBlock"
	KindBlock    MessageKind = "block"
	KindTx       MessageKind = "tx"
)

// Message is the single JSON object framed by a trailing newline byte.
// Fields not meaningful to Kind are omitted on encode and ignored on decode.
type Message struct {
	Kind MessageKind `json:"kind"`

	NetworkID string `json:"network_id,omitempty"`
	NodeID    string `json:"node_id,omitempty"`
	Height    uint32 `json:"height,omitempty"`
	HashHex   string `json:"hash_hex,omitempty"`

	Nonce uint64 `json:"nonce,omitempty"`

	PayloadB64 string `json:"payload_b64,omitempty"`
}

// NewVersionMessage builds a version handshake message.
func NewVersionMessage(networkID, nodeID string, height uint32, hashHex string) Message {
	return Message{Kind: KindVersion, NetworkID: networkID, NodeID: nodeID, Height: height, HashHex: hashHex}
}

// NewVerAckMessage builds a verack message.
func NewVerAckMessage() Message { return Message{Kind: KindVerAck} }

// NewPingMessage builds a ping message carrying a caller-chosen nonce.
func NewPingMessage(nonce uint64) Message { return Message{Kind: KindPing, Nonce: nonce} }

// NewPongMessage builds a pong message echoing a ping's nonce.
func NewPongMessage(nonce uint64) Message { return Message{Kind: KindPong, Nonce: nonce} }

// NewGetTipMessage builds a getTip message.
func NewGetTipMessage() Message { return Message{Kind: KindGetTip} }

// NewTipMessage builds a tip announcement message.
func NewTipMessage(height uint32, hashHex string) Message {
	return Message{Kind: KindTip, Height: height, HashHex: hashHex}
}

// NewGetBlockMessage builds a getBlock request for the block with the given
// hash.
func NewGetBlockMessage(hashHex string) Message {
	return Message{Kind: KindGetBlock, HashHex: hashHex}
}

// NewBlockMessage builds a block message carrying the base64-encoded
// serialized block.
func NewBlockMessage(payload []byte) Message {
	return Message{Kind: KindBlock, PayloadB64: base64.StdEncoding.EncodeToString(payload)}
}

// NewTxMessage builds a tx message carrying the base64-encoded serialized
// transaction.
func NewTxMessage(payload []byte) Message {
	return Message{Kind: KindTx, PayloadB64: base64.StdEncoding.EncodeToString(payload)}
}

// Payload decodes the message's base64 payload field.
func (m Message) Payload() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.PayloadB64)
}

// Validate checks that Kind carries the fields spec.md §4.9 requires for it.
func (m Message) Validate() error {
	switch m.Kind {
	case KindVersion:
		if m.NetworkID == "" || m.NodeID == "" || m.HashHex == "" {
			return fmt.Errorf("wire: version message missing required fields")
		}
	case KindVerAck, KindGetTip:
		// No required fields beyond kind.
	case KindPing, KindPong:
		// Nonce may legitimately be zero; no further check.
	case KindTip:
		if m.HashHex == "" {
			return fmt.Errorf("wire: tip message missing hash_hex")
		}
	case KindGetBlock:
		if m.HashHex == "" {
			return fmt.Errorf("wire: getBlock message missing hash_hex")
		}
	case KindBlock, KindTx:
		if m.PayloadB64 == "" {
			return fmt.Errorf("wire: %s message missing payload_b64", m.Kind)
		}
	default:
		return fmt.Errorf("wire: unknown message kind %q", m.Kind)
	}
	return nil
}

// FrameWriter writes one JSON-encoded Message per line.
type FrameWriter struct {
	w *bufio.Writer
}

// NewFrameWriter wraps w for newline-delimited JSON message framing.
func NewFrameWriter(w interface{ Write([]byte) (int, error) }) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriter(w)}
}

// WriteMessage encodes and flushes a single framed message.
func (fw *FrameWriter) WriteMessage(m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := fw.w.Write(b); err != nil {
		return err
	}
	if err := fw.w.WriteByte('\n'); err != nil {
		return err
	}
	return fw.w.Flush()
}

// FrameReader reads newline-delimited JSON messages, rejecting any frame
// longer than MaxFrameBytes.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r for newline-delimited JSON message framing.
func NewFrameReader(r interface{ Read([]byte) (int, error) }) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadMessage reads and decodes the next framed message. Invalid JSON lines
// (or lines that fail Validate) are dropped silently and the next line is
// read in their place; only an oversized frame or a transport error is
// returned, which signals the caller to disconnect the peer.
func (fr *FrameReader) ReadMessage() (Message, error) {
	for {
		var m Message
		line, err := fr.readLine()
		if err != nil {
			return m, err
		}
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		if err := m.Validate(); err != nil {
			continue
		}
		return m, nil
	}
}

func (fr *FrameReader) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := fr.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > MaxFrameBytes {
			return nil, fmt.Errorf("wire: frame exceeds %d bytes, disconnecting peer", MaxFrameBytes)
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return nil, err
	}
	n := len(buf)
	if n > 0 && buf[n-1] == '\n' {
		buf = buf[:n-1]
	}
	return buf, nil
}
