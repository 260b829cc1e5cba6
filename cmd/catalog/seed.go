package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalog/internal/cache"
	"github.com/smallbiznis/catalog/internal/migration"
	"github.com/smallbiznis/catalog/internal/product"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/providers"
	"github.com/smallbiznis/catalog/internal/seed"
	"github.com/smallbiznis/catalog/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type productDeps struct {
	fx.In

	DB      *gorm.DB
	Node    *snowflake.Node
	Cache   cache.ProductListCache
	Service productdomain.Service
}

// withProducts runs fn against a migrated database and the product service.
func withProducts(ctx context.Context, fn func(context.Context, productDeps) error) error {
	var deps productDeps
	return runTask(ctx, func(ctx context.Context) error {
		return fn(ctx, deps)
	},
		migration.Module,
		cache.Module,
		storage.Module,
		providers.Module,
		product.Module,
		fx.Populate(&deps),
	)
}

func newSeedCmd() *cobra.Command {
	var (
		count   int
		rngSeed uint64
		fixture bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo products and the default user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProducts(cmd.Context(), func(ctx context.Context, deps productDeps) error {
				if fixture {
					res, err := deps.Service.Import(ctx, seed.FixtureCSV())
					if err != nil {
						return err
					}
					printImport(cmd.OutOrStdout(), res)
					return nil
				}

				n, err := seed.Products(ctx, deps.DB, deps.Node, seed.ProductOptions{Count: count, Seed: rngSeed})
				if err != nil {
					return err
				}
				if err := deps.Cache.Invalidate(ctx); err != nil {
					return fmt.Errorf("invalidate list cache: %w", err)
				}
				cmd.Printf("seeded %d products; log in as %s / %s\n", n, seed.DefaultUserEmail, seed.DefaultUserPassword)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "products", seed.DefaultProductCount, "number of generated products")
	cmd.Flags().Uint64Var(&rngSeed, "seed", 0, "random seed for generated products (0 picks one)")
	cmd.Flags().BoolVar(&fixture, "csv", false, "import the bundled CSV fixture instead of generating products")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import products from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withProducts(cmd.Context(), func(ctx context.Context, deps productDeps) error {
				res, err := deps.Service.Import(ctx, f)
				if err != nil {
					return err
				}
				printImport(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func printImport(w io.Writer, res *productdomain.ImportResult) {
	fmt.Fprintf(w, "imported %d product(s)\n", res.Imported)
	for _, rowErr := range res.Errors {
		fmt.Fprintf(w, "  row %d", rowErr.Row)
		if rowErr.SKU != "" {
			fmt.Fprintf(w, " (%s)", rowErr.SKU)
		}
		for _, msg := range rowErr.Errors {
			fmt.Fprintf(w, ": %s", msg)
		}
		fmt.Fprintln(w)
	}
}
