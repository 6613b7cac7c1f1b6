package pow

// Scratchpad is the contiguous mutable byte region the edge generator fills
// with an AES keystream and then mutates in place as it walks the dependent
// edge chain. One Scratchpad is owned by exactly one Generator for its
// lifetime and is recycled across nonces by that Generator.
type Scratchpad struct {
	bytes []byte
}

// NewScratchpad allocates a scratchpad of the given size. size must be a
// multiple of 16; callers normally pass GraphParams.ScratchpadBytes.
func NewScratchpad(size uint32) *Scratchpad {
	return &Scratchpad{bytes: make([]byte, size)}
}

// Bytes returns the underlying buffer.
func (s *Scratchpad) Bytes() []byte { return s.bytes }

// Blocks reports the number of 16-byte cells in the scratchpad.
func (s *Scratchpad) Blocks() int { return len(s.bytes) / 16 }

// Cell returns the 16-byte cell at the given block index.
func (s *Scratchpad) Cell(i int) []byte {
	return s.bytes[i*16 : i*16+16]
}
