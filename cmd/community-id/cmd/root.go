// Package cmd implements the community-id command line tool.
package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	communityid "github.com/corelight/go-community-id"
)

const (
	keySeed     = "seed"
	keyNoBase64 = "no-base64"
	keyDebug    = "debug"
)

// New creates the community-id root command.
func New() *cobra.Command {
	vp := newViper()
	rootCmd := &cobra.Command{
		Use:   "community-id [flags] proto src-addr dst-addr src-port dst-port",
		Short: "Compute Community ID flow identifiers",
		Long: `community-id computes the version 1 Community ID of a flow tuple, a
direction-independent identifier that all observers of the same flow agree on.

proto is an IP protocol number or one of icmp, icmp6, tcp, udp, sctp. For
icmp and icmp6 the port arguments carry the message type and code instead.`,
		Example: `  community-id tcp 128.232.110.120 66.35.250.204 34855 80
  community-id --seed 1 udp 10.0.0.1 10.0.0.2 53 41000
  community-id --no-base64 icmp 192.168.0.89 192.168.0.1 8 0`,
		Args:          cobra.ExactArgs(5),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(vp, cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Uint16(keySeed, 0, "Seed mixed into the digest (env COMMUNITYID_SEED)")
	flags.Bool(keyNoBase64, false, "Print the identifier as hex instead of base64")
	flags.BoolP(keyDebug, "D", false, "Enable debug messages")
	vp.BindPFlags(flags)

	rootCmd.AddCommand(
		newPcapCommand(vp),
		newVersionCommand(),
	)
	rootCmd.SetVersionTemplate("{{with .Name}}{{printf \"%s \" .}}{{end}}{{printf \"v%s\" .Version}}\n")
	return rootCmd
}

func newViper() *viper.Viper {
	vp := viper.New()
	vp.SetEnvPrefix("communityid")
	vp.AutomaticEnv()
	return vp
}

// config assembles the hashing configuration from flags and environment.
func config(vp *viper.Viper) (communityid.Config, error) {
	seed := vp.GetInt(keySeed)
	if seed < 0 || seed > math.MaxUint16 {
		return communityid.Config{}, fmt.Errorf("seed %d out of range (0-65535)", seed)
	}
	cfg := communityid.Config{Seed: uint16(seed)}
	if vp.GetBool(keyNoBase64) {
		cfg.Encoding = communityid.HexEncoding
	}
	return cfg, nil
}
