package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/five82/feeds/internal/app"
	"github.com/five82/feeds/internal/prefs"
)

// Version is set at build time.
var Version = "0.0.0-local"

func main() {
	os.Exit(run())
}

func run() int {
	usage := fmt.Sprintf(`Watch an activity feed live.

Preferences are stored in %s.

Usage:
    feedwatch [<fid>] [--config=<path>] [--prefs=<path>] [--no-watch]
        [--metrics=<addr>] [--v=<level>]
    feedwatch -h | --help
    feedwatch --version

Arguments:
    <fid>              Feed to open as group:id. Defaults to the last feed,
                       then the user's timeline.

Options:
    -h --help          Show this screen.
    --version          Show version.
    --config=<path>    Config file [default: ~/.config/feeds/config.toml].
    --prefs=<path>     Preferences file.
    --no-watch         Load the feed without a realtime connection.
    --metrics=<addr>   Serve Prometheus metrics on addr, e.g. 127.0.0.1:9464.
    --v=<level>        Log verbosity.`,
		prefs.DefaultPath(),
	)

	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedwatch: %v\n", err)
		return 2
	}

	if level, _ := opts.String("--v"); level != "" {
		_ = flag.Set("v", level)
	}
	defer glog.Flush()

	appOpts := app.Options{}
	appOpts.FID, _ = opts.String("<fid>")
	appOpts.ConfigPath, _ = opts.String("--config")
	appOpts.PrefsPath, _ = opts.String("--prefs")
	appOpts.NoWatch, _ = opts.Bool("--no-watch")
	appOpts.MetricsAddr, _ = opts.String("--metrics")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, appOpts); err != nil {
		fmt.Fprintf(os.Stderr, "feedwatch: %v\n", err)
		return 1
	}
	return 0
}
