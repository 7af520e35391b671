// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command digest runs the pipeline once for a single video: download,
// transcribe, summarize and translate, then prints the run directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/workflow"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
	"github.com/jaycherian/gcp-go-media-digest/internal/telemetry"
)

const defaultFocus = "main points and key insights"

type options struct {
	url          string
	lang         string
	out          string
	focus        string
	bullets      int
	audioOnly    bool
	configPrefix string
	runtime      string
	verbose      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	opts := &options{}
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.url, "url", "", "video URL (required)")
	fs.StringVar(&opts.lang, "lang", model.DefaultTargetLanguage, "two letter target language")
	fs.StringVar(&opts.out, "out", cwd, "root directory for run output")
	fs.StringVar(&opts.focus, "focus", defaultFocus, "what the summary should concentrate on")
	fs.IntVar(&opts.bullets, "bullets", 0, "summarize as this many bullet points")
	fs.BoolVar(&opts.audioOnly, "audio-only", false, "download only the audio stream")
	fs.StringVar(&opts.configPrefix, "config", "configs", "directory holding the .env TOML files")
	fs.StringVar(&opts.runtime, "runtime", "local", "configuration runtime layer")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.url == "" {
		fs.Usage()
		return nil, errors.New("-url is required")
	}
	return opts, nil
}

func loadConfig(opts *options) (*cloud.Config, error) {
	if err := cloud.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := os.Setenv(cloud.EnvConfigFilePrefix, opts.configPrefix); err != nil {
		return nil, err
	}
	if err := os.Setenv(cloud.EnvConfigRuntime, opts.runtime); err != nil {
		return nil, err
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	// the CLI never consumes subscriptions
	config.TopicSubscriptions = map[string]cloud.TopicSubscription{}
	return config, nil
}

func run(ctx context.Context, opts *options) (*model.RunOutput, error) {
	config, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := telemetry.ParseLevel(config.Application.LogLevel)
	if opts.verbose {
		level = slog.LevelDebug
	}
	telemetry.SetupLogging(os.Stderr, level)

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	defer clients.Close()

	deps, err := workflow.NewDependencies(config, clients, executor.New())
	if err != nil {
		return nil, err
	}

	return workflow.NewDigestWorkflow(deps).Run(ctx, &model.DigestRequest{
		URL:            opts.url,
		TargetLanguage: opts.lang,
		OutputRoot:     opts.out,
		FocusHints:     opts.focus,
		BulletPoints:   opts.bullets,
		AudioOnly:      opts.audioOnly,
	})
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "digest:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := run(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "digest:", err)
		stop()
		os.Exit(1)
	}
	fmt.Println(out.Dir)
}
