package communityid

// Hasher computes flow identifiers under a fixed configuration.
type Hasher interface {
	// Hash returns the identifier for the given flow tuple.
	Hash(tuple FlowTuple) (string, error)
}

// CommunityID is the default Hasher: seed 0, base64 encoding. It produces
// the identifiers other tools emit out of the box, so hashes from this
// Hasher can be matched against theirs directly.
var CommunityID = NewHasher(Config{})

// NewHasher returns a Hasher that applies cfg to every flow it hashes.
// The returned Hasher is safe for concurrent use.
func NewHasher(cfg Config) Hasher {
	return &hasher{cfg: cfg}
}

type hasher struct {
	cfg Config
}

func (h *hasher) Hash(tuple FlowTuple) (string, error) {
	return Calc(h.cfg, tuple)
}
