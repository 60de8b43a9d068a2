package cli

import (
	"github.com/spf13/cobra"
)

func newRankingsCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Rankings(top)
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "Only show the first N players (0 shows everyone)")

	return cmd
}

func newTournamentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tournaments [name]",
		Short: "List active tournaments, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			if len(args) == 1 {
				result, err := client.Tournament(args[0])
				if err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			result, err := client.Tournaments()
			if err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}
}

func newOnlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "List players with a live session",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Online()
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player <username>",
		Short: "Show a registered player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Player(args[0])
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
