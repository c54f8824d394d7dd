package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
)

var warmPageSize int

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Preload active reference entities into the lookup cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !cfg.Cache.Enabled {
			return eris.New("cache is disabled, nothing to warm")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cached, ok := st.(*refstore.CachedStore)
		if !ok {
			return eris.New("store is not cache-wrapped")
		}

		total := 0
		for _, kind := range []model.EntityKind{model.KindCustomer, model.KindContact, model.KindItem} {
			n, err := cached.Warm(ctx, kind, warmPageSize)
			if err != nil {
				return eris.Wrapf(err, "warm %s", kind)
			}
			total += n
		}

		zap.L().Info("cache warm complete", zap.Int("entities", total))
		return nil
	},
}

func init() {
	warmCmd.Flags().IntVar(&warmPageSize, "page-size", 500, "entities loaded per store page")
	rootCmd.AddCommand(warmCmd)
}
