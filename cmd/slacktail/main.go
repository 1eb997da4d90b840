// Copyright 2024-2026 Aiku AI

// Command slacktail follows a Slack workspace over the real-time messaging
// API and prints a readable transcript of incoming messages to stdout,
// leaving out muted channels and users. It reconnects on its own and exits
// when interrupted or when the workspace rejects its token.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/aiku/slacktail/pkg/config"
	"github.com/aiku/slacktail/pkg/directory"
	"github.com/aiku/slacktail/pkg/matcher"
	"github.com/aiku/slacktail/pkg/mute"
	"github.com/aiku/slacktail/pkg/slackrtm"
	"github.com/aiku/slacktail/pkg/supervisor"
	"github.com/aiku/slacktail/pkg/transcript"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const name = "slacktail"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "config.yaml", "Path to the config file")
	generate := flags.BoolP("generate-example-config", "e", false, "Write the example config to the config path and exit")
	noUpdate := flags.BoolP("no-update", "n", false, "Don't write the merged config back to the config path")
	version := flags.BoolP("version", "v", false, "Print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Fprintf(stdout, "%s %s (commit %s, built %s)\n", name, Tag, Commit, BuildTime)
		return 0
	}
	if *generate {
		if err := config.WriteExample(*configPath); err != nil {
			fmt.Fprintf(stderr, "Failed to write example config: %v\n", err)
			return 1
		}
		fmt.Fprintf(stderr, "Wrote example config to %s\n", *configPath)
		return 0
	}

	cfg, err := config.Load(*configPath, !*noUpdate)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return 1
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	channels, users, err := mute.Compile(cfg.Mute)
	if err != nil {
		log.Error().Err(err).Msg("Invalid mute rules")
		return 1
	}

	sv := newSupervisor(cfg, channels, users, stdout, *log)
	log.Info().
		Str("version", Tag).
		Int("muted_channels", len(channels)).
		Int("muted_users", len(users)).
		Msg("Starting")

	err = sv.Run(ctx)
	switch {
	case err == nil:
		log.Info().Msg("Shut down")
		return 0
	case errors.Is(err, supervisor.ErrDeactivated):
		log.Warn().Err(err).Msg("Token rejected, exiting")
		return 0
	default:
		log.Error().Err(err).Msg("Unrecoverable connection failure")
		return 1
	}
}

// newSupervisor binds a fresh transport and a fresh processor to each
// connection attempt. The mute rules are compiled once and shared.
func newSupervisor(cfg *config.Config, channels, users []*matcher.Matcher, out io.Writer, log zerolog.Logger) *supervisor.Supervisor {
	var styler transcript.Styler = transcript.PlainStyler{}
	if cfg.Output.Color {
		styler = transcript.NewTermStyler(termenv.NewOutput(out))
	}
	return supervisor.New(supervisor.Options{
		NewTransport: func() supervisor.Transport {
			return slackrtm.New(slackrtm.Options{
				APIURL:       cfg.Slack.APIURL,
				Token:        cfg.Slack.Token,
				PingInterval: cfg.Slack.PingIntervalDuration(),
				ReadTimeout:  cfg.Slack.ReadTimeoutDuration(),
				Log:          log,
			})
		},
		NewProcessor: func(dir directory.Directory) supervisor.Processor {
			resolver := directory.NewResolver(dir)
			renderer := transcript.NewRenderer(resolver, transcript.RendererOptions{
				Location: cfg.Location(),
				Styler:   styler,
			})
			return transcript.NewProcessor(mute.NewCompiled(channels, users, resolver), renderer, out, log)
		},
		Log: log,
	})
}
