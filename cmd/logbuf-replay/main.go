package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/logbuf/logbuf-go"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func main() {
	app := cli.NewApp()
	app.Name = "logbuf-replay"
	app.Usage = "Publish synthetic messages into terms and reassemble them back."
	app.Version = logbuf.Version
	app.Flags = newFlags()
	app.Action = run
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "YAML config file",
		},
		cli.IntFlag{
			Name:  "subscriptions",
			Usage: "Number of subscriptions replayed in parallel",
		},
		cli.IntFlag{
			Name:  "sessions,s",
			Usage: "Number of sessions interleaved on every subscription",
		},
		cli.IntFlag{
			Name:  "messages,n",
			Usage: "Number of messages published by every session",
		},
		cli.IntFlag{
			Name:  "message-length,l",
			Usage: "Payload length of every message",
		},
		cli.IntFlag{
			Name:  "mtu",
			Usage: "Max frame length including the header",
		},
		cli.IntFlag{
			Name:  "term-length",
			Usage: "Term length, a power of two",
		},
		cli.IntFlag{
			Name:  "fragment-limit",
			Usage: "Fragments polled from an image per turn",
		},
		cli.IntFlag{
			Name:  "initial-buffer-length",
			Usage: "Initial capacity of a session buffer",
		},
		cli.IntFlag{
			Name:  "max-message-length",
			Usage: "Max length of a reassembled message",
		},
		cli.DurationFlag{
			Name:  "idle-timeout",
			Usage: "Idle period after which a session is unavailable",
		},
		cli.BoolFlag{
			Name:  "debug,d",
			Usage: "Debug Output",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format [console|json]",
		},
	}
}

func applyFlags(c *cli.Context, cfg *Config) {
	ints := map[string]*int{
		"subscriptions":         &cfg.Subscriptions,
		"sessions":              &cfg.Sessions,
		"messages":              &cfg.Messages,
		"message-length":        &cfg.MessageLength,
		"mtu":                   &cfg.MTU,
		"term-length":           &cfg.TermLength,
		"fragment-limit":        &cfg.FragmentLimit,
		"initial-buffer-length": &cfg.InitialBufferLength,
		"max-message-length":    &cfg.MaxMessageLength,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	if c.IsSet("idle-timeout") {
		cfg.IdleTimeout = c.Duration("idle-timeout")
	}
	if c.Bool("debug") {
		cfg.Log.Level = "debug"
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
}

func run(c *cli.Context) error {
	cfg, err := Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := setupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = l.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reports, err := NewRunner(cfg, l).Run(ctx)
	var delivered int
	for _, it := range reports {
		delivered += it.Delivered
	}
	if err != nil {
		l.Error("replay failed", zap.Int("delivered", delivered), zap.Error(err))
		return err
	}
	l.Info("replay completed", zap.Int("subscriptions", len(reports)), zap.Int("delivered", delivered))
	return nil
}
