package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/backend-bits/saas-backend/pkg/identity"
)

var errTokenProvider = errors.New("token: IDENTITY_PROVIDER must be hs256")

var tokenFlags struct {
	subject string
	email   string
	tier    string
	paid    bool
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development bearer token",
	Long:  `Signs a token with IDENTITY_SIGNING_KEY. Only available with the hs256 identity provider.`,
	Example: `  IDENTITY_PROVIDER=hs256 IDENTITY_SIGNING_KEY=dev saas-backend token --sub user-1 --tier pro`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Identity.Provider != identity.ProviderHS256 {
			return errTokenProvider
		}

		v, err := identity.NewHS256Verifier(cfg.Identity)
		if err != nil {
			return err
		}
		tok, err := v.Issue(identity.Claims{
			Subject: tokenFlags.subject,
			Email:   tokenFlags.email,
			Tier:    tokenFlags.tier,
			Paid:    tokenFlags.paid,
		}, tokenFlags.ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.subject, "sub", "dev-user", "subject (user id)")
	f.StringVar(&tokenFlags.email, "email", "", "email claim")
	f.StringVar(&tokenFlags.tier, "tier", "free", "subscription tier claim")
	f.BoolVar(&tokenFlags.paid, "paid", false, "is_paid claim")
	f.DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
}
