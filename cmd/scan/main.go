// Command scan runs a single scan through the engine and prints the verdict as JSON.
//
//	scan --url https://bit.ly/abc
//	scan --transcript "This is the IRS calling about an arrest warrant"
//	scan --email message.txt
//	scan --audio call.mp3
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/internal/domain/services"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/ai"
	"seniorguard/internal/sources/catalog"
	"seniorguard/pkg/logger"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "path to config file")
		rawURL     = flag.String("url", "", "link to scan")
		text       = flag.String("text", "", "message text to scan")
		transcript = flag.String("transcript", "", "call transcript to scan")
		emailFile  = flag.String("email", "", "file holding an email body")
		audioFile  = flag.String("audio", "", "recorded call ("+strings.Join(ai.AudioFormats(), ", ")+")")
		timeout    = flag.Duration("timeout", time.Minute, "overall deadline")
		verbose    = flag.BoolP("verbose", "v", false, "log source activity to stderr")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}

	log := logger.NewNop()
	if *verbose {
		log = logger.New(logger.Config{Level: "debug", Format: "console", Output: os.Stderr})
	}

	registry := sources.NewRegistry(log)
	if err := catalog.Register(registry, cfg.Providers, log); err != nil {
		fail(err)
	}
	engine := services.NewEngine(cfg.Engine, registry, log,
		services.WithTranscriber(catalog.NewTranscriber(cfg.Providers, log)))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var result any
	switch {
	case *rawURL != "":
		result, err = engine.ScanURL(ctx, *rawURL)
	case *text != "":
		result, err = engine.ScanText(ctx, *text)
	case *transcript != "":
		result, err = engine.ScanVoiceText(ctx, *transcript)
	case *emailFile != "":
		var body []byte
		if body, err = os.ReadFile(*emailFile); err == nil {
			result, err = engine.ScanEmail(ctx, string(body))
		}
	case *audioFile != "":
		var audio []byte
		if audio, err = os.ReadFile(*audioFile); err == nil {
			format := strings.TrimPrefix(filepath.Ext(*audioFile), ".")
			result, err = engine.ScanVoiceAudio(ctx, audio, format)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fail(err)
	}
}

func fail(err error) {
	if models.IsInputValidation(err) {
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
	os.Exit(1)
}
