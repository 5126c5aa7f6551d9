package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/timelines/internal/adapters/render"
	"github.com/okian/timelines/internal/domain/term"
)

func newEventsCommand(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the event types usable in event pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			render.Definitions(cmd.OutOrStdout())
			return nil
		},
	}
}

func newTermsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "terms [term...]",
		Short: "List the admit terms available in the database, or describe the given ones",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				terms, err := term.ParseAll(args)
				if err != nil {
					return err
				}
				render.Terms(cmd.OutOrStdout(), terms)
				return nil
			}

			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			terms, err := store.AdmitTerms(cmd.Context())
			if err != nil {
				return err
			}
			render.Terms(cmd.OutOrStdout(), terms)
			return nil
		},
	}
}
