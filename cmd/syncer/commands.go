package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// run builds the app for a command and logs the command's error before returning it.
func run(cmd *cobra.Command, envFile string, f func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := f(ctx, a); err != nil {
		a.log.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}

	a.log.Info("command finished", zap.String("command", cmd.Name()))
	return nil
}

func initCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Onboard the institutions behind the access tokens in TOKENS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, *envFile, func(ctx context.Context, a *app) error {
				if err := a.cfg.RequireTokens(); err != nil {
					return err
				}

				s, err := a.syncer()
				if err != nil {
					return err
				}

				institutions, err := s.OnboardInstitutions(ctx, a.cfg.Tokens)
				a.log.Info("institutions onboarded", zap.Int("onboarded", len(institutions)), zap.Int("tokens", len(a.cfg.Tokens)))
				return err
			})
		},
	}
}

func syncCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull transaction changes of every institution and the exchange, then export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, *envFile, func(ctx context.Context, a *app) error {
				s, err := a.syncer()
				if err != nil {
					return err
				}

				var errs []error

				results, err := s.SyncInstitutions(ctx)
				if err != nil {
					errs = append(errs, err)
				}
				a.log.Info("institutions synced", zap.Int("succeeded", len(results)))

				if _, err := s.SyncCrypto(ctx); err != nil {
					errs = append(errs, err)
				}

				// a failed institution keeps its previous rows, the export still reflects everything stored
				if a.cfg.Export.Enabled {
					if err := exportFile(ctx, a, a.cfg.Export.Path); err != nil {
						errs = append(errs, err)
					}
				}

				return errors.Join(errs...)
			})
		},
	}
}

func balancesCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Refresh accounts of every institution and log their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, *envFile, func(ctx context.Context, a *app) error {
				s, err := a.syncer()
				if err != nil {
					return err
				}

				_, err = s.RefreshBalances(ctx)
				return err
			})
		},
	}
}

func exportCmd(envFile *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored transactions to a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, *envFile, func(ctx context.Context, a *app) error {
				path := a.cfg.Export.Path
				if output != "" {
					path = output
				}
				return exportFile(ctx, a, path)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV path, overrides EXPORT_PATH")

	return cmd
}

func exportFile(ctx context.Context, a *app, path string) error {
	e, err := a.exporter()
	if err != nil {
		return err
	}

	_, err = e.ExportFile(ctx, path)
	return err
}
