package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/backend-bits/saas-backend/svc/billing"
)

var plansJSON bool

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Print the plan catalog",
	Long:  `Loads and validates the plan catalog (BILLING_PLANS_FILE or the built-in plans) and prints it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		order, err := buildOrdering(cfg)
		if err != nil {
			return err
		}
		catalog, err := buildCatalog(cmd.Context(), cfg.Billing, order)
		if err != nil {
			return err
		}
		return printPlans(cmd.OutOrStdout(), catalog.Plans(), plansJSON)
	},
}

func init() {
	plansCmd.Flags().BoolVar(&plansJSON, "json", false, "print JSON instead of a table")
}

func printPlans(w io.Writer, plans []billing.Plan, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plans)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tTIER\tPRICE\tPRICE ID\tLIMITS")
	for _, p := range plans {
		price := "free"
		if !p.Free() {
			price = fmt.Sprintf("%d.%02d %s", p.Price.Amount/100, p.Price.Amount%100, p.Price.Currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Code, p.Tier, price, orDash(p.PriceID), formatLimits(p.Limits))
	}
	return tw.Flush()
}

func formatLimits(l billing.Limits) string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(l[k])
		if l[k] == billing.Unlimited {
			v = "unlimited"
		}
		parts = append(parts, k+"="+v)
	}
	return orDash(strings.Join(parts, " "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
