package capture

import (
	"fmt"
	"io"
	"sort"
	"time"

	communityid "github.com/corelight/go-community-id"
	"github.com/corelight/go-community-id/packet"
)

// direction of a packet relative to the first packet seen for its flow.
type direction int8

const (
	forward direction = iota
	reverse
)

// Record is one per-packet observation.
type Record struct {
	Timestamp time.Time
	Tuple     communityid.FlowTuple
	ID        string
}

func (r Record) String() string {
	return fmt.Sprintf("%d.%06d %s %s",
		r.Timestamp.Unix(), r.Timestamp.Nanosecond()/1000, r.ID, r.Tuple)
}

// FlowStats aggregates every packet sharing one identifier. The tuple
// keeps the orientation of the first packet seen, which anchors the
// forward direction.
type FlowStats struct {
	ID    string
	Tuple communityid.FlowTuple

	FirstSeen time.Time
	LastSeen  time.Time

	ForwardPackets int64
	ForwardBytes   int64
	ReversePackets int64
	ReverseBytes   int64
}

func (fs *FlowStats) observe(tuple communityid.FlowTuple, dec *packet.Decoded) {
	n := int64(dec.Length)
	if fs.directionOf(tuple) == forward {
		fs.ForwardPackets++
		fs.ForwardBytes += n
	} else {
		fs.ReversePackets++
		fs.ReverseBytes += n
	}
	fs.LastSeen = dec.Timestamp
}

func (fs *FlowStats) directionOf(tuple communityid.FlowTuple) direction {
	if tuple.SourceIP.Equal(fs.Tuple.SourceIP) && tuple.SourcePort == fs.Tuple.SourcePort {
		return forward
	}
	return reverse
}

func (fs *FlowStats) String() string {
	return fmt.Sprintf("%s %s fwd_pkts=%d fwd_bytes=%d rev_pkts=%d rev_bytes=%d duration=%.6f",
		fs.ID, fs.Tuple,
		fs.ForwardPackets, fs.ForwardBytes, fs.ReversePackets, fs.ReverseBytes,
		fs.LastSeen.Sub(fs.FirstSeen).Seconds())
}

// writeStats emits one line per flow, ordered by first appearance so the
// report is stable run to run.
func writeStats(w io.Writer, flows map[string]*FlowStats) error {
	all := make([]*FlowStats, 0, len(flows))
	for _, fs := range flows {
		all = append(all, fs)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FirstSeen.Equal(all[j].FirstSeen) {
			return all[i].ID < all[j].ID
		}
		return all[i].FirstSeen.Before(all[j].FirstSeen)
	})
	for _, fs := range all {
		if _, err := fmt.Fprintln(w, fs); err != nil {
			return err
		}
	}
	return nil
}
