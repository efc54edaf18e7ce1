// Package capture annotates packet captures with Community ID flow
// hashes. It reads pcap files with the pure Go reader, so it works on
// saved captures without libpcap; live capture is out of scope.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
	"github.com/sirupsen/logrus"

	communityid "github.com/corelight/go-community-id"
	"github.com/corelight/go-community-id/cryptopan"
	"github.com/corelight/go-community-id/packet"
)

// Options configure a Summarizer.
type Options struct {
	// Config selects the seed and encoding of the emitted identifiers.
	Config communityid.Config

	// Aggregate switches the output from one line per packet to one line
	// per flow, written once the capture has been read to the end.
	Aggregate bool

	// Anonymizer, when set, rewrites both addresses of every tuple before
	// hashing. Tuples and identifiers then consistently describe the
	// anonymized view of the capture, never the real one.
	Anonymizer *cryptopan.Cryptopan

	// Decoder overrides how packets are reduced to tuples. Nil selects
	// the standard decoder.
	Decoder packet.Decoder

	// Logger receives progress and skip diagnostics. Nil selects the
	// logrus standard logger.
	Logger *logrus.Logger

	// ReportEvery emits a progress line each time this many packets have
	// been read. Zero disables progress reporting.
	ReportEvery int64
}

// Summarizer reads a packet capture and writes one record per packet, or
// per flow, to its output writer.
type Summarizer struct {
	w      io.Writer
	hasher communityid.Hasher
	opts   Options
	log    *logrus.Entry

	packets int64
	skipped int64
	flows   map[string]*FlowStats
}

// NewSummarizer returns a Summarizer writing records to w. A Summarizer
// tracks flow state across calls, so use a fresh one per capture.
func NewSummarizer(w io.Writer, opts Options) *Summarizer {
	if opts.Decoder == nil {
		opts.Decoder = &packet.StandardDecoder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Summarizer{
		w:      w,
		hasher: communityid.NewHasher(opts.Config),
		opts:   opts,
		log:    logger.WithField("subsys", "capture"),
		flows:  make(map[string]*FlowStats),
	}
}

// SummarizeFile runs the summarizer over a pcap file on disk.
func (s *Summarizer) SummarizeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()
	return s.Summarize(f)
}

// Summarize reads pcap data from r until EOF, writing records as
// configured.
func (s *Summarizer) Summarize(r io.Reader) error {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("reading pcap header: %w", err)
	}

	source := gopacket.NewPacketSource(pr, pr.LinkType())
	for {
		raw, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading packet %d: %w", s.packets+1, err)
		}
		if err := s.process(raw); err != nil {
			return err
		}
	}

	if s.opts.Aggregate {
		if err := writeStats(s.w, s.flows); err != nil {
			return err
		}
	}
	s.log.WithFields(logrus.Fields{
		"packets": s.packets,
		"skipped": s.skipped,
		"flows":   len(s.flows),
	}).Info("capture summarized")
	return nil
}

func (s *Summarizer) process(raw gopacket.Packet) error {
	s.packets++
	if s.opts.ReportEvery > 0 && s.packets%s.opts.ReportEvery == 0 {
		s.log.Infof("processed %d packets, tracking %d flows", s.packets, len(s.flows))
	}

	dec, err := s.opts.Decoder.Decode(raw)
	if err != nil {
		s.skipped++
		s.log.WithError(err).Debugf("skipping packet %d", s.packets)
		return nil
	}

	tuple := dec.Tuple
	if s.opts.Anonymizer != nil {
		tuple.SourceIP = s.opts.Anonymizer.Anonymize(tuple.SourceIP)
		tuple.DestinationIP = s.opts.Anonymizer.Anonymize(tuple.DestinationIP)
	}

	id, err := s.hasher.Hash(tuple)
	if err != nil {
		s.skipped++
		s.log.WithError(err).Debugf("skipping packet %d", s.packets)
		return nil
	}

	fs, ok := s.flows[id]
	if !ok {
		fs = &FlowStats{ID: id, Tuple: tuple, FirstSeen: dec.Timestamp}
		s.flows[id] = fs
	}
	fs.observe(tuple, dec)

	if s.opts.Aggregate {
		return nil
	}
	_, err = fmt.Fprintln(s.w, Record{Timestamp: dec.Timestamp, Tuple: tuple, ID: id})
	return err
}
