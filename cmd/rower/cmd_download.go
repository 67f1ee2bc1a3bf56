package main

import (
	"errors"
	"fmt"

	"github.com/raskyld/rower/pkg/gopher"
	"github.com/spf13/cobra"
)

func newDownloadCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <address>",
		Short: "Save a Gopher resource in the download directory",
		Long: `Save a Gopher resource in the download directory.

The file is named after the last segment of the selector and replaces any
file of the same name. The download directory must exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			loc, err := gopher.ParseLocator(args[0])
			if err != nil {
				return err
			}

			s, err := opts.newSession()
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, s.Close())
			}()

			path, err := s.DownloadToFile(cmd.Context(), loc.Host, loc.Selector, loc.Port)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	return cmd
}
