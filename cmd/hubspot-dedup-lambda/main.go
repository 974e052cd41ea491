/*
AWS Lambda entrypoint for the HubSpot contact workflow actions.

The action is chosen per event ("action" field) or by HUBSPOT_ACTION:

  - dedup: merge duplicates into the triggering contact (event.object.objectId)
    and return {"outputFields": {...}}.
  - list: fetch one page of contacts from a contact list and return
    {"message": ..., "contacts": [...]}.

The HubSpot access token is taken from event.secrets.DedupSecret, then
DEDUP_SECRET, then the Secrets Manager secret named by DEDUP_SECRET_ID.

Outside of Lambda the handler runs once against a JSON event read from
--event (stdin by default) and prints the response.
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	flags "github.com/jessevdk/go-flags"
	"github.com/scottbrown/hubspot-contact-dedup/hubspotdedup"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options are read from flags or the environment.
type Options struct {
	LambdaRuntimeAPI string  `long:"lambda-runtime-api" env:"AWS_LAMBDA_RUNTIME_API"`
	Action           string  `long:"action" env:"HUBSPOT_ACTION" default:"dedup" choice:"dedup" choice:"list"`
	DedupSecret      string  `long:"dedup-secret" env:"DEDUP_SECRET"`
	DedupSecretID    string  `long:"dedup-secret-id" env:"DEDUP_SECRET_ID"`
	ListID           string  `long:"list-id" env:"HUBSPOT_LIST_ID" default:"1383"`
	BaseURL          string  `long:"base-url" env:"HUBSPOT_BASE_URL" default:"https://api.hubapi.com"`
	MaxRetries       int     `long:"max-retries" env:"HUBSPOT_MAX_RETRIES" default:"8"`
	RateLimit        float64 `long:"rate-limit" env:"HUBSPOT_RATE_LIMIT" default:"0"`
	AWSRegion        string  `long:"aws-region" env:"AWS_REGION"`
	Debug            bool    `long:"debug" env:"DEBUG"`
	Event            string  `long:"event" description:"Path to a JSON event for local execution" default:"-"`
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func newSecretsClient(ctx context.Context, opts Options) (hubspotdedup.SecretsClient, error) {
	if opts.DedupSecretID == "" {
		return nil, nil
	}
	var loadOpts []func(*config.LoadOptions) error
	if opts.AWSRegion != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.AWSRegion))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func readEvent(r io.Reader) (Event, error) {
	var ev Event
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&ev); err != nil && err != io.EOF {
		return ev, fmt.Errorf("failed to parse event: %w", err)
	}
	return ev, nil
}

func runLocal(ctx context.Context, h *handler, path string, out io.Writer) error {
	in := os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	ev, err := readEvent(in)
	if err != nil {
		return err
	}

	resp, err := h.Handle(ctx, ev)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		log.Fatal(err)
	}

	logger, err := newLogger(opts.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	secrets, err := newSecretsClient(ctx, opts)
	if err != nil {
		logger.Fatal("failed to initialise secrets client", zap.Error(err))
	}

	h := newHandler(opts, logger, secrets)

	// When running from Lambda, this should be read from the environment.
	if opts.LambdaRuntimeAPI != "" {
		logger.Info("starting Lambda handler", zap.String("action", opts.Action))
		lambda.Start(h.Handle)
		return
	}

	logger.Info("Lambda execution environment not found, falling back to local execution")
	if err := runLocal(ctx, h, opts.Event, os.Stdout); err != nil {
		logger.Fatal("local execution failed", zap.Error(err))
	}
}
