package communityid

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddrBytes(t *testing.T) {
	t.Run("ipv4", func(t *testing.T) {
		b, err := addrBytes(net.ParseIP("192.168.0.89"))
		require.NoError(t, err)
		assert.Equal(t, []byte{192, 168, 0, 89}, b)
	})
	t.Run("ipv4-mapped collapses", func(t *testing.T) {
		b, err := addrBytes(net.ParseIP("::ffff:192.168.0.89"))
		require.NoError(t, err)
		assert.Equal(t, []byte{192, 168, 0, 89}, b)
	})
	t.Run("ipv6", func(t *testing.T) {
		b, err := addrBytes(net.ParseIP("fe80::1"))
		require.NoError(t, err)
		assert.Len(t, b, 16)
		assert.Equal(t, byte(0xfe), b[0])
		assert.Equal(t, byte(0x01), b[15])
	})
	t.Run("nil", func(t *testing.T) {
		_, err := addrBytes(nil)
		assert.ErrorIs(t, err, ErrMissingAddress)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := addrBytes(net.IP{})
		assert.ErrorIs(t, err, ErrAddressLength)
	})
	t.Run("odd length", func(t *testing.T) {
		_, err := addrBytes(net.IP{1, 2, 3, 4, 5})
		assert.ErrorIs(t, err, ErrAddressLength)
	})
}

func TestCanonicalizeOrdersEndpoints(t *testing.T) {
	t.Run("flips address pair and port pair together", func(t *testing.T) {
		tuple := MakeFlowTupleWithPorts(ProtoTCP,
			net.ParseIP("128.232.110.120"), net.ParseIP("66.35.250.204"), 34855, 80)
		c, err := tuple.canonicalize()
		require.NoError(t, err)
		assert.Equal(t, []byte{66, 35, 250, 204}, c.saddr)
		assert.Equal(t, []byte{128, 232, 110, 120}, c.daddr)
		assert.Equal(t, uint16(80), c.sport)
		assert.Equal(t, uint16(34855), c.dport)
	})
	t.Run("already ordered stays", func(t *testing.T) {
		tuple := MakeFlowTupleWithPorts(ProtoTCP,
			net.ParseIP("66.35.250.204"), net.ParseIP("128.232.110.120"), 34855, 80)
		c, err := tuple.canonicalize()
		require.NoError(t, err)
		assert.Equal(t, []byte{66, 35, 250, 204}, c.saddr)
		assert.Equal(t, uint16(34855), c.sport)
	})
	t.Run("equal addresses use port tiebreak", func(t *testing.T) {
		tuple := MakeFlowTupleWithPorts(ProtoTCP,
			net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.1"), 1024, 80)
		c, err := tuple.canonicalize()
		require.NoError(t, err)
		assert.Equal(t, uint16(80), c.sport)
		assert.Equal(t, uint16(1024), c.dport)
	})
	t.Run("portless equal addresses stay", func(t *testing.T) {
		tuple := MakeFlowTuple(46, net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.1"))
		c, err := tuple.canonicalize()
		require.NoError(t, err)
		assert.False(t, c.hasPorts)
		assert.Equal(t, c.saddr, c.daddr)
	})
	t.Run("one-way icmp keeps orientation", func(t *testing.T) {
		// Type 3 has no counterpart; the higher source address must not flip.
		tuple := MakeFlowTupleWithPorts(ProtoICMP,
			net.ParseIP("192.168.0.89"), net.ParseIP("192.168.0.1"), 3, 1)
		c, err := tuple.canonicalize()
		require.NoError(t, err)
		assert.Equal(t, []byte{192, 168, 0, 89}, c.saddr)
		assert.Equal(t, []byte{192, 168, 0, 1}, c.daddr)
		assert.Equal(t, uint16(3), c.sport)
		assert.Equal(t, uint16(1), c.dport)
	})
	t.Run("icmp counterpart replaces destination slot", func(t *testing.T) {
		tuple := MakeFlowTupleWithPorts(ProtoICMP,
			net.ParseIP("192.168.0.1"), net.ParseIP("192.168.0.89"), 13, 0)
		c, err := tuple.canonicalize()
		require.NoError(t, err)
		// Timestamp requests pair with type 14, which ousts the code.
		assert.Equal(t, []byte{192, 168, 0, 1}, c.saddr)
		assert.Equal(t, uint16(13), c.sport)
		assert.Equal(t, uint16(14), c.dport)
	})
	t.Run("mixed families rejected", func(t *testing.T) {
		tuple := MakeFlowTuple(ProtoTCP, net.ParseIP("10.0.0.1"), net.ParseIP("fe80::1"))
		_, err := tuple.canonicalize()
		assert.ErrorIs(t, err, ErrMixedAddressFamilies)
	})
}

func TestCanonicalizeLeavesTupleUntouched(t *testing.T) {
	saddr := net.ParseIP("192.168.0.89")
	daddr := net.ParseIP("192.168.0.1")
	tuple := MakeFlowTupleWithPorts(ProtoICMP, saddr, daddr, 8, 0)

	_, err := tuple.canonicalize()
	require.NoError(t, err)

	assert.True(t, tuple.SourceIP.Equal(net.ParseIP("192.168.0.89")))
	assert.True(t, tuple.DestinationIP.Equal(net.ParseIP("192.168.0.1")))
	assert.Equal(t, uint16(8), tuple.SourcePort)
	assert.Equal(t, uint16(0), tuple.DestinationPort)
	assert.True(t, saddr.Equal(net.ParseIP("192.168.0.89")))
}

func TestFlowTupleString(t *testing.T) {
	withPorts := MakeFlowTupleWithPorts(ProtoTCP,
		net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 80, 443)
	assert.Equal(t, "10.0.0.1:80<->10.0.0.2:443/6", withPorts.String())

	portless := MakeFlowTuple(46, net.ParseIP("10.1.24.4"), net.ParseIP("10.1.12.1"))
	assert.Equal(t, "10.1.24.4<->10.1.12.1/46", portless.String())
}
