package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/kinesis/internal/config"
	"github.com/vango-dev/kinesis/internal/demo"
	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/snapshot"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

// loadConfig reads the file named by --config, or the working directory's
// configuration file, or falls back to defaults when there is none.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(".")
		if errors.HasCode(err, errors.CodeConfigRead) {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// app resolves the component named by args, or the configured one.
func app(cfg *config.Config, args []string) (string, vdom.Component, error) {
	name := cfg.App
	if len(args) > 0 {
		name = args[0]
	}
	comp, ok := demo.Lookup(name)
	if !ok {
		return "", nil, errors.New(errors.CodeConfigInvalid).
			WithDetailf("unknown app %q", name).
			WithSuggestion("Available apps: " + strings.Join(demo.Names(), ", "))
	}
	return name, comp, nil
}

// openStore returns the configured snapshot store, or nil when snapshots
// are disabled. Callers close stores that implement io.Closer.
func openStore(cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Target {
	case config.SnapshotFile:
		store, err := snapshot.NewFileStore(cfg.Snapshot.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.SnapshotBolt:
		store, err := snapshot.OpenBoltStore(cfg.Snapshot.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.SnapshotS3:
		return snapshot.NewS3Store(newS3Client(cfg.Snapshot), cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	default:
		return nil, nil
	}
}

func closeStore(store snapshot.Store) {
	if c, ok := store.(io.Closer); ok {
		c.Close()
	}
}

func newS3Client(sc config.SnapshotConfig) *s3.Client {
	region := sc.Region
	if region == "" {
		region = config.DefaultRegion
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials),
	}
	if sc.Endpoint != "" {
		opts.BaseEndpoint = aws.String(sc.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// envCredentials reads the standard AWS environment variables.
var envCredentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, stderrors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for s3 snapshots")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
})
