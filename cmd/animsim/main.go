package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ticks := flag.Int("ticks", 600, "ticks to simulate (0 = until interrupted)")
	realtime := flag.Bool("realtime", false, "pace ticks at the configured tick rate")
	seed := flag.Uint64("seed", 1, "seed for the parameter driver")
	verbose := flag.Bool("v", false, "log every animation event")

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{Ticks: *ticks, Realtime: *realtime, Seed: *seed, Verbose: *verbose}
	if err := run(ctx, cfg, opts, log.Default()); err != nil {
		log.Fatal(err)
	}
}
