package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/client"
	"github.com/five82/feeds/internal/config"
	"github.com/five82/feeds/internal/feed"
	"github.com/five82/feeds/internal/metrics"
	"github.com/five82/feeds/internal/prefs"
	"github.com/five82/feeds/internal/ui"
)

// Options configure a feedwatch session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/feeds/prefs.toml
	// FID is the feed to open as group:id. Empty opens the last viewed feed,
	// or the user's timeline.
	FID string
	// NoWatch loads the feed without a realtime connection.
	NoWatch bool
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string
}

// Run opens the feed and shows it until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	group, id, err := resolveFeed(opts.FID, userPrefs.LastFeed, cfg.UserID)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if opts.MetricsAddr != "" {
		serveMetrics(ctx, opts.MetricsAddr, reg)
	}

	rest, err := api.NewClient(api.Options{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
		Token:   cfg.UserToken,
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	c := client.New(rest, client.Options{
		UserID:          cfg.UserID,
		PageSize:        cfg.PageSize,
		CommentPageSize: cfg.CommentPageSize,
		Metrics:         m,
	})

	watch := !opts.NoWatch
	if watch {
		done, err := connect(ctx, cfg, c, m)
		if err != nil {
			return err
		}
		go func() {
			if err := <-done; err != nil && ctx.Err() == nil {
				glog.Warningf("realtime connection closed: %v", err)
			}
		}()
	}

	f := c.Feed(group, id)
	if err := f.GetOrCreate(ctx, feed.GetOrCreateRequest{Watch: watch}); err != nil {
		return err
	}
	if err := prefs.Update(opts.PrefsPath, func(p *prefs.Prefs) { p.LastFeed = f.FID() }); err != nil {
		glog.Infof("save last feed: %v", err)
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Feed:      f,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})
}

// resolveFeed picks the feed to open: the explicit fid, then the last one,
// then the user's timeline.
func resolveFeed(fid, last, userID string) (group, id string, err error) {
	for _, candidate := range []string{fid, last} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		group, id, ok := strings.Cut(candidate, ":")
		if !ok || group == "" || id == "" {
			return "", "", fmt.Errorf("invalid feed %q, want group:id", candidate)
		}
		return group, id, nil
	}
	if userID == "" {
		return "", "", errors.New("no feed given and no user id configured")
	}
	return "timeline", userID, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Warningf("metrics server: %v", err)
		}
	}()
}
