package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/smallbiznis/catalog/pkg/client"
	"github.com/smallbiznis/catalog/pkg/client/listview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type remoteFlags struct {
	v *viper.Viper
}

func newRemoteFlags(cmd *cobra.Command) *remoteFlags {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.AutomaticEnv()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("email", "user@example.com")
	v.SetDefault("password", "password")

	cmd.PersistentFlags().String("api-url", "", "catalog API base url (CATALOG_API_URL)")
	cmd.PersistentFlags().String("email", "", "login email (CATALOG_EMAIL)")
	cmd.PersistentFlags().String("password", "", "login password (CATALOG_PASSWORD)")
	_ = v.BindPFlag("api_url", cmd.PersistentFlags().Lookup("api-url"))
	_ = v.BindPFlag("email", cmd.PersistentFlags().Lookup("email"))
	_ = v.BindPFlag("password", cmd.PersistentFlags().Lookup("password"))
	return &remoteFlags{v: v}
}

func cliLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// login returns a client with an initialized session.
func (f *remoteFlags) login(ctx context.Context) (*client.Client, error) {
	log, err := cliLogger()
	if err != nil {
		return nil, err
	}
	c, err := client.New(f.v.GetString("api_url"), client.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if _, err := c.Login(ctx, f.v.GetString("email"), f.v.GetString("password")); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Work with products through the HTTP API",
	}
	remote := newRemoteFlags(cmd)
	cmd.AddCommand(
		newProductsListCmd(remote),
		newProductsExportCmd(remote),
		newProductsBrowseCmd(remote),
	)
	return cmd
}

func newProductsListCmd(remote *remoteFlags) *cobra.Command {
	var params client.ListParams
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remote.login(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Logout(context.Background())

			res, err := c.ListProducts(cmd.Context(), params)
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), res.Data)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d total\n", res.CurrentPage, res.LastPage, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Search, "search", "", "filter by name, sku, description or categories")
	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.Limit, "limit", listview.DefaultLimit, "page size")
	return cmd
}

func newProductsExportCmd(remote *remoteFlags) *cobra.Command {
	var search, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the product listing as csv or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remote.login(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Logout(context.Background())

			file, err := c.ExportProducts(cmd.Context(), search, format)
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Filename
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(file.Body)
				return err
			}
			if err := os.WriteFile(out, file.Body, 0o644); err != nil {
				return err
			}
			cmd.Printf("wrote %s (%d bytes)\n", out, len(file.Body))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter exported products")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or pdf")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path, - for stdout")
	return cmd
}

const browseHelp = `type a search term, or a command:
  :n / :p      next / previous page
  :page N      jump to page N
  :size N      change page size
  :reset       clear search and page size
  <enter>      show the current page
  :q           quit`

func newProductsBrowseCmd(remote *remoteFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively search and page through products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remote.login(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Logout(context.Background())

			out := cmd.OutOrStdout()
			logger, err := cliLogger()
			if err != nil {
				return err
			}
			view := listview.New(c, listview.Config{
				Session: c.Session(),
				Log:     logger,
				OnError: func(err error) { fmt.Fprintln(out, "error:", err) },
				OnLogout: func() {
					fmt.Fprintln(out, "session expired, please log in again")
				},
				OnState: func(s listview.State) {
					if s == listview.StateLoading {
						fmt.Fprintln(out, "loading...")
					}
				},
			})
			defer view.Close()

			render := func() {
				snap := view.Snapshot()
				printProducts(out, snap.Products)
				fmt.Fprintf(out, "search=%q page %d of %d, %d total\n", snap.Search, snap.Page, snap.LastPage, snap.Total)
			}
			fmt.Fprintln(out, browseHelp)
			if err := view.Load(); err == nil {
				render()
			}
			return browse(cmd.Context(), cmd.InOrStdin(), view, render, c.Session())
		},
	}
}

func browse(ctx context.Context, in io.Reader, view *listview.View, render func(), session *client.Session) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil || !session.Active() {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)

		var err error
		switch {
		case line == ":q":
			return nil
		case line == "":
			render()
			continue
		case line == ":n":
			err = view.SetPage(view.Snapshot().Page + 1)
		case line == ":p":
			err = view.SetPage(view.Snapshot().Page - 1)
		case line == ":reset":
			err = view.ResetFilter()
		case len(fields) == 2 && (fields[0] == ":page" || fields[0] == ":size"):
			n, convErr := strconv.Atoi(fields[1])
			if convErr != nil {
				continue
			}
			if fields[0] == ":page" {
				err = view.SetPage(n)
			} else {
				err = view.SetLimit(n)
			}
		default:
			// Debounced; an empty line shows the latest result.
			view.SetSearch(line)
			continue
		}
		if err == nil {
			render()
		}
	}
	return scanner.Err()
}

func printProducts(w io.Writer, products []client.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tPRICE\tCATEGORIES")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.SKU, p.Name, p.Price, p.Categories)
	}
	_ = tw.Flush()
}
