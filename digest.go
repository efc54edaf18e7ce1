package communityid

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
)

// digest hashes the canonical tuple. The layout is fixed by the standard:
// 2-byte big-endian seed, source address, destination address, protocol,
// one zero pad byte, and the ports as 2-byte big-endian values when the
// tuple has them. A portless tuple hashes the shorter stream rather than
// zero padding. Both the layout and the SHA-1 digest must match other
// implementations bit for bit.
func digest(seed uint16, c canonical) ([]byte, error) {
	h := sha1.New()

	var seedBytes [2]byte
	binary.BigEndian.PutUint16(seedBytes[:], seed)
	if _, err := h.Write(seedBytes[:]); err != nil {
		return nil, fmt.Errorf("communityid: hashing seed: %w", err)
	}
	if _, err := h.Write(c.saddr); err != nil {
		return nil, fmt.Errorf("communityid: hashing source address: %w", err)
	}
	if _, err := h.Write(c.daddr); err != nil {
		return nil, fmt.Errorf("communityid: hashing destination address: %w", err)
	}
	if _, err := h.Write([]byte{c.proto, 0x00}); err != nil {
		return nil, fmt.Errorf("communityid: hashing protocol: %w", err)
	}
	if c.hasPorts {
		var ports [4]byte
		binary.BigEndian.PutUint16(ports[:2], c.sport)
		binary.BigEndian.PutUint16(ports[2:], c.dport)
		if _, err := h.Write(ports[:]); err != nil {
			return nil, fmt.Errorf("communityid: hashing ports: %w", err)
		}
	}
	return h.Sum(nil), nil
}
