package cli

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/protocol"
)

const dialTimeout = 10 * time.Second

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Connect to the game server and play interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			tlsCfg, err := protocol.ClientTLSConfig(cfg.CAFile, cfg.ServerName())
			if err != nil {
				return err
			}

			dialer := &net.Dialer{Timeout: dialTimeout}
			conn, err := tls.DialWithDialer(dialer, "tcp", cfg.ServerAddr, tlsCfg)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.ServerAddr, err)
			}
			defer func() { _ = conn.Close() }()

			return RunTerminal(conn, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
