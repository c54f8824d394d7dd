package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/resolver"
)

var (
	resolveKind        string
	resolveExternalID  string
	resolveName        string
	resolveEmail       string
	resolvePhone       string
	resolveAddress     string
	resolveTitle       string
	resolveCustomer    string
	resolveSKU         string
	resolveDescription string
	resolveColor       string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a single extracted fragment against the reference data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r := initResolver(st)

		q, err := buildQuery()
		if err != nil {
			return err
		}

		result, err := r.Resolve(ctx, q)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func buildQuery() (model.MatchQuery, error) {
	kind := model.EntityKind(resolveKind)
	if !kind.Valid() {
		return model.MatchQuery{}, eris.Errorf("unknown kind %q (want customer, contact, or item)", resolveKind)
	}

	switch kind {
	case model.KindCustomer:
		return resolver.CustomerQuery(model.CustomerInput{
			ExternalID: resolveExternalID,
			Name:       resolveName,
			Email:      resolveEmail,
			Phone:      resolvePhone,
			Address:    resolveAddress,
		}), nil
	case model.KindContact:
		return resolver.ContactQuery(model.ContactInput{
			Name:  resolveName,
			Email: resolveEmail,
			Phone: resolvePhone,
			Title: resolveTitle,
		}, resolveCustomer), nil
	default:
		return resolver.ItemQuery(model.LineItem{
			SKU:         resolveSKU,
			Description: resolveDescription,
			Color:       resolveColor,
		}), nil
	}
}

func init() {
	resolveCmd.Flags().StringVar(&resolveKind, "kind", "", "entity kind: customer, contact, or item (required)")
	resolveCmd.Flags().StringVar(&resolveExternalID, "external-id", "", "external system identifier")
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "name as extracted")
	resolveCmd.Flags().StringVar(&resolveEmail, "email", "", "email as extracted")
	resolveCmd.Flags().StringVar(&resolvePhone, "phone", "", "phone as extracted")
	resolveCmd.Flags().StringVar(&resolveAddress, "address", "", "address as extracted")
	resolveCmd.Flags().StringVar(&resolveTitle, "title", "", "contact title")
	resolveCmd.Flags().StringVar(&resolveCustomer, "customer", "", "resolved customer key scoping a contact lookup")
	resolveCmd.Flags().StringVar(&resolveSKU, "sku", "", "line item SKU")
	resolveCmd.Flags().StringVar(&resolveDescription, "description", "", "line item description")
	resolveCmd.Flags().StringVar(&resolveColor, "color", "", "line item color")
	_ = resolveCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(resolveCmd)
}
