package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/raskyld/rower"
	"github.com/raskyld/rower/pkg/flow"
	"github.com/raskyld/rower/pkg/gopher"
	"github.com/spf13/cobra"
)

func newGetCmd(opts *globalOptions) *cobra.Command {
	var (
		prefetch bool
		follow   []int
	)

	cmd := &cobra.Command{
		Use:   "get [address]",
		Short: "Display a Gopher menu or document",
		Long: `Display a Gopher menu or document.

The address is host[:port][/T/selector] or gopher://host[:port]/Tselector.
Without address, the home set in the config file is opened.

Menus are listed with the index of each entry, use --follow to walk
through them: "rower get example.org -f 2 -f 0" opens the third entry of
the root menu then the first entry of that page.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			address := opts.cfg.Home
			if len(args) == 1 {
				address = args[0]
			}
			if address == "" {
				return fmt.Errorf("no address given and no home configured")
			}

			s, err := opts.newSession()
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, s.Close())
			}()

			navOpts := []rower.NavigatorOption{
				rower.WithNavigatorLog(opts.logHandler()),
				rower.WithPrefetchConcurrency(opts.cfg.PrefetchConcurrency),
			}
			if prefetch {
				images, err := rower.NewPayloadCache(s.Client, opts.cfg.PayloadCacheSize, rower.WithLog(opts.logHandler()))
				if err != nil {
					return err
				}
				navOpts = append(navOpts, rower.WithPrefetcher(images))
			} else {
				navOpts = append(navOpts, rower.WithPrefetcher(nil))
			}

			// Unbuffered, so the consumer is done with a page before the
			// navigation that would release it can complete.
			pages := flow.NewLocal[*rower.Page](0)
			navOpts = append(navOpts, rower.WithPageFlow(pages))

			nav, err := rower.NewNavigator(s.Client, navOpts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			last := make(chan string, 1)
			go func() {
				var title string
				for {
					page, err := pages.Recv(ctx)
					if err != nil {
						last <- title
						return
					}
					title = string(page.Address)
				}
			}()

			page, err := nav.NavigateTo(ctx, address)
			for _, idx := range follow {
				if err != nil {
					break
				}
				if page.Menu == nil || idx < 0 || idx >= page.Menu.Len() {
					err = fmt.Errorf("%s has no entry %d", page.Locator, idx)
					break
				}
				page, err = nav.Follow(ctx, page.Menu.At(idx))
			}
			if err != nil {
				_ = nav.Close()
				return err
			}

			printErr := printPage(cmd.OutOrStdout(), page)
			if err := nav.Close(); err != nil {
				return err
			}
			s.logger.Debug("last page handed off", "address", <-last)
			return printErr
		},
	}

	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "prefetch the images of menus")
	cmd.Flags().IntSliceVarP(&follow, "follow", "f", nil, "index of the menu entry to open next, repeatable")
	return cmd
}

func printPage(w io.Writer, page *rower.Page) error {
	switch {
	case page.Empty():
		_, err := fmt.Fprintf(w, "%s: empty page\n", page.Address)
		return err
	case page.Menu != nil:
		return printMenu(w, page)
	case page.Locator.Type.IsText():
		_, err := io.WriteString(w, page.Text.String())
		return err
	default:
		_, err := w.Write(page.Raw.Bytes())
		return err
	}
}

func printMenu(w io.Writer, page *rower.Page) error {
	for i, ent := range page.Menu.All() {
		var err error
		if ent.Type == gopher.TypeInfo {
			_, err = fmt.Fprintf(w, "     %s\n", page.Lines[i])
		} else {
			_, err = fmt.Fprintf(w, "%4d %s  <%s>\n", i, page.Lines[i], ent.Locator())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
