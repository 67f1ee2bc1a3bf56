package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raskyld/rower/pkg/gopher"
	"github.com/spf13/cobra"
)

func newSearchCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <address> <query>...",
		Short: "Query a Gopher index server",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			loc, err := gopher.ParseLocator(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")

			s, err := opts.newSession()
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, s.Close())
			}()

			ctx := cmd.Context()
			payload, err := s.Search(ctx, loc.Host, loc.Selector, loc.Port, query)
			if err != nil {
				return err
			}
			defer payload.Release()

			if payload.IsEmpty() {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "no result for %q\n", query)
				return err
			}

			parser, err := gopher.NewParser(gopher.WithLogger(opts.logHandler()))
			if err != nil {
				return err
			}
			menu := parser.ParseMenu(ctx, payload.Bytes())
			defer menu.Release()

			return printResults(cmd.OutOrStdout(), menu)
		},
	}
	return cmd
}

func printResults(w io.Writer, menu *gopher.Menu) error {
	for i, ent := range menu.All() {
		if _, err := fmt.Fprintf(w, "%4d [%s] %s  <%s>\n", i, ent.Description(), ent.DisplayName, ent.Locator()); err != nil {
			return err
		}
	}
	return nil
}
