// Package communityid computes Community ID flow hashes: compact,
// direction-independent identifiers for network flows that let independent
// monitoring tools correlate records of the same traffic.
//
// An identifier is derived from the flow tuple alone. Before hashing, the
// tuple is brought into a canonical form: the endpoint seen from both
// directions of a flow is ordered the same way, and ICMP and ICMPv6
// message types stand in for transport ports so that a request and its
// reply land on the same identifier. The canonical tuple is then hashed
// with a seeded SHA-1 and rendered as "1:" followed by the base64 (or,
// optionally, lowercase hex) encoding of the digest.
//
// The same tuple, seed and encoding always yield the same identifier, on
// any platform and in any implementation of the standard.
package communityid

// VersionPrefix starts every identifier this package produces. A future
// revision of the standard would bump the prefix rather than silently
// change the digest.
const VersionPrefix = "1:"

// IP protocol numbers this package knows by name. Kept local so callers
// don't need to pull in a protocol-number table just to build tuples.
const (
	ProtoICMP  = 1
	ProtoTCP   = 6
	ProtoUDP   = 17
	ProtoICMP6 = 58
	ProtoSCTP  = 132
)

// Config carries the two knobs of the computation. The zero value matches
// the defaults of the standard: seed 0, base64 output.
type Config struct {
	// Seed is mixed into the digest. Deployments can pick distinct seeds
	// to keep their identifiers from being comparable across domains.
	Seed uint16

	// Encoding renders the digest into the identifier body. Nil selects
	// Base64Encoding.
	Encoding Encoding
}

// Calc computes the Community ID of a flow tuple under cfg.
//
// Calc does not modify the tuple and is safe for concurrent use. On error
// the returned identifier is empty.
func Calc(cfg Config, tuple FlowTuple) (string, error) {
	ct, err := tuple.canonicalize()
	if err != nil {
		return "", err
	}
	sum, err := digest(cfg.Seed, ct)
	if err != nil {
		return "", err
	}
	enc := cfg.Encoding
	if enc == nil {
		enc = Base64Encoding
	}
	return VersionPrefix + enc.EncodeToString(sum), nil
}
