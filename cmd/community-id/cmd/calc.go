package cmd

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	communityid "github.com/corelight/go-community-id"
)

func runCalc(vp *viper.Viper, cmd *cobra.Command, args []string) error {
	cfg, err := config(vp)
	if err != nil {
		return err
	}
	tuple, err := parseTuple(args)
	if err != nil {
		return err
	}
	id, err := communityid.Calc(cfg, tuple)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func parseTuple(args []string) (communityid.FlowTuple, error) {
	proto, err := parseProto(args[0])
	if err != nil {
		return communityid.FlowTuple{}, err
	}
	saddr, err := parseAddr(args[1])
	if err != nil {
		return communityid.FlowTuple{}, err
	}
	daddr, err := parseAddr(args[2])
	if err != nil {
		return communityid.FlowTuple{}, err
	}
	sport, err := parsePort(args[3])
	if err != nil {
		return communityid.FlowTuple{}, err
	}
	dport, err := parsePort(args[4])
	if err != nil {
		return communityid.FlowTuple{}, err
	}
	return communityid.MakeFlowTupleWithPorts(proto, saddr, daddr, sport, dport), nil
}

func parseProto(s string) (uint8, error) {
	switch strings.ToLower(s) {
	case "icmp":
		return communityid.ProtoICMP, nil
	case "tcp":
		return communityid.ProtoTCP, nil
	case "udp":
		return communityid.ProtoUDP, nil
	case "icmp6":
		return communityid.ProtoICMP6, nil
	case "sctp":
		return communityid.ProtoSCTP, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown protocol %q", s)
	}
	return uint8(n), nil
}

func parseAddr(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address %q", s)
	}
	return ip, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(n), nil
}
