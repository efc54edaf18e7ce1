package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corelight/go-community-id/capture"
	"github.com/corelight/go-community-id/cryptopan"
)

const (
	keyAggregate   = "aggregate"
	keyAnonymize   = "anonymize"
	keyAnonKey     = "anon-key"
	keyReportEvery = "report-every"
)

func newPcapCommand(vp *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pcap FILE",
		Short: "Compute Community IDs for the packets of a capture file",
		Long: `pcap reads a capture file and prints one line per packet (timestamp,
identifier, flow tuple) or, with --aggregate, one line per flow with packet
and byte counters for both directions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPcap(vp, cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.Bool(keyAggregate, false, "Print one line per flow instead of per packet")
	flags.Bool(keyAnonymize, false, "Anonymize addresses with Crypto-PAn before hashing")
	flags.String(keyAnonKey, "", "Crypto-PAn key as 64 hex characters (random when omitted)")
	flags.Int64(keyReportEvery, 0, "Log progress every N packets")
	vp.BindPFlags(flags)

	return cmd
}

func runPcap(vp *viper.Viper, cmd *cobra.Command, path string) error {
	cfg, err := config(vp)
	if err != nil {
		return err
	}

	log := logrus.New()
	if vp.GetBool(keyDebug) {
		log.SetLevel(logrus.DebugLevel)
	}

	opts := capture.Options{
		Config:      cfg,
		Aggregate:   vp.GetBool(keyAggregate),
		Logger:      log,
		ReportEvery: vp.GetInt64(keyReportEvery),
	}
	if vp.GetBool(keyAnonymize) || vp.GetString(keyAnonKey) != "" {
		key, err := anonymizationKey(log, vp.GetString(keyAnonKey))
		if err != nil {
			return err
		}
		cp, err := cryptopan.New(key)
		if err != nil {
			return err
		}
		opts.Anonymizer = cp
	}

	return capture.NewSummarizer(cmd.OutOrStdout(), opts).SummarizeFile(path)
}

// anonymizationKey decodes the user-supplied key, or generates a random one.
// With a random key the identifiers are only consistent within a single run.
func anonymizationKey(log *logrus.Logger, hexKey string) ([]byte, error) {
	if hexKey == "" {
		log.Info("no anonymization key given, generating a random one")
		return cryptopan.GenerateKey()
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding anonymization key: %w", err)
	}
	return key, nil
}
