package app

import (
	"context"
	"fmt"

	"github.com/five82/feeds/internal/client"
	"github.com/five82/feeds/internal/config"
	"github.com/five82/feeds/internal/metrics"
	"github.com/five82/feeds/internal/realtime"
)

// connect dials the realtime endpoint, records the connection id on c and
// starts delivering events to c. The returned channel yields the error the
// connection ended with. There is no reconnect.
func connect(ctx context.Context, cfg config.Config, c *client.Client, m *metrics.Metrics) (<-chan error, error) {
	dispatcher, err := realtime.NewDispatcher(c.HandleEvent, cfg.DedupeWindow, m)
	if err != nil {
		return nil, err
	}

	conn, err := realtime.Dial(ctx, cfg.WSURL, realtime.Auth{
		APIKey: cfg.APIKey,
		UserID: cfg.UserID,
		Token:  cfg.UserToken,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect realtime: %w", err)
	}
	c.SetConnectionID(conn.ConnectionID())

	done := make(chan error, 1)
	go func() {
		done <- conn.Run(ctx, dispatcher.HandleFrame)
	}()
	return done, nil
}
