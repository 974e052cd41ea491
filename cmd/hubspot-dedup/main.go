package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/scottbrown/hubspot-contact-dedup/hubspotdedup"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	accessToken string
	secretID    string
	awsProfile  string
	awsRegion   string
	baseURL     string
	maxRetries  int
	rateLimit   float64
	verbose     bool

	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hubspot-dedup",
	Short: "Deduplicate and list HubSpot contacts",
	Long: `A CLI tool that runs the HubSpot contact workflow actions locally:
merging duplicate contacts that share a name and phone number or job title,
and fetching pages of contacts from a contact list.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&accessToken, "token", "t", "", "HubSpot private app access token (default: $HUBSPOT_ACCESS_TOKEN or $DedupSecret)")
	rootCmd.PersistentFlags().StringVar(&secretID, "secret-id", "", "AWS Secrets Manager secret holding the access token")
	rootCmd.PersistentFlags().StringVarP(&awsProfile, "profile", "p", "", "AWS profile name for Secrets Manager (uses default credential chain if omitted)")
	rootCmd.PersistentFlags().StringVar(&awsRegion, "region", "", "AWS region for Secrets Manager")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", hubspotdedup.DefaultBaseURL, "HubSpot API base URL")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", hubspotdedup.DefaultMaxRetries, "Max retries for rate-limited (429) calls")
	rootCmd.PersistentFlags().Float64Var(&rateLimit, "rate-limit", 0, "Max requests per second sent to HubSpot (0 disables pacing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	rootCmd.AddCommand(dedupCmd, listCmd, reportCmd, scopesCmd, versionCmd)
}

func retryPolicy() hubspotdedup.RetryPolicy {
	p := hubspotdedup.DefaultRetryPolicy()
	p.MaxRetries = maxRetries
	return p
}

func newClient(ctx context.Context) (*hubspotdedup.HTTPClient, error) {
	resolver := hubspotdedup.TokenResolver{
		Token:    accessToken,
		SecretID: secretID,
		Getenv:   os.Getenv,
	}
	if secretID != "" {
		sm, err := newSecretsClient(ctx)
		if err != nil {
			return nil, err
		}
		resolver.Secrets = sm
	}

	token, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	return hubspotdedup.NewHTTPClient(token,
		hubspotdedup.WithBaseURL(baseURL),
		hubspotdedup.WithRateLimit(rateLimit, 1),
	), nil
}

func newSecretsClient(ctx context.Context) (*secretsmanager.Client, error) {
	var opts []func(*config.LoadOptions) error
	if awsRegion != "" {
		opts = append(opts, config.WithRegion(awsRegion))
	}
	if awsProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(awsProfile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func writeOutput(cmd *cobra.Command, data []byte, path string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Output written to: %s\n", path)
	return nil
}

func writeReport(cmd *cobra.Command, rg *hubspotdedup.ReportGenerator, path string) error {
	if path == "-" {
		return rg.Generate(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := rg.Generate(f); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to: %s\n", path)
	return nil
}
