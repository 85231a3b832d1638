// Package wsfeed keeps the latest pool snapshot pushed over a websocket.
package wsfeed

import (
	"context"
	"sync"
	"time"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/business/pools/infra/wire"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/logger"
	"github.com/fd1az/perpetual-pools/internal/wsconn"
)

// Config holds feed settings.
type Config struct {
	URL     string
	Account string
	// WaitFirst bounds how long Rows blocks for the first snapshot.
	WaitFirst time.Duration
}

// subscribeRequest is sent after every (re)connect.
type subscribeRequest struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Account string `json:"account,omitempty"`
}

// Feed is an app.RowSource fed by websocket pushes of full snapshots.
type Feed struct {
	client *wsconn.Client
	cfg    Config
	logger logger.LoggerInterface

	mu        sync.RWMutex
	rows      []domain.PoolTokenRow
	updatedAt time.Time
	first     chan struct{}
	firstOnce sync.Once
}

// NewFeed creates a Feed. Call Start to connect.
func NewFeed(cfg Config, log logger.LoggerInterface) (*Feed, error) {
	client, err := wsconn.New(wsconn.DefaultConfig(cfg.URL, "pools-feed"))
	if err != nil {
		return nil, err
	}
	if cfg.WaitFirst == 0 {
		cfg.WaitFirst = 10 * time.Second
	}

	f := &Feed{
		client: client,
		cfg:    cfg,
		logger: log,
		first:  make(chan struct{}),
	}
	client.OnMessage(f.handleMessage)
	client.OnStateChange(f.handleState)
	return f, nil
}

// Name implements app.RowSource.
func (f *Feed) Name() string {
	return "ws"
}

// Start connects, retrying until ctx ends.
func (f *Feed) Start(ctx context.Context) error {
	return f.client.ConnectWithRetry(ctx)
}

// Close stops the feed.
func (f *Feed) Close() error {
	return f.client.Close()
}

// Connected reports whether the socket is up.
func (f *Feed) Connected() bool {
	return f.client.IsConnected()
}

// UpdatedAt is the time of the last accepted snapshot.
func (f *Feed) UpdatedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updatedAt
}

// Rows implements app.RowSource. It waits up to WaitFirst for the first snapshot.
func (f *Feed) Rows(ctx context.Context) ([]domain.PoolTokenRow, error) {
	wait, cancel := context.WithTimeout(ctx, f.cfg.WaitFirst)
	defer cancel()

	select {
	case <-f.first:
	case <-wait.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, apperror.New(apperror.CodePoolSnapshotEmpty, apperror.WithContext("no snapshot received from feed"))
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rows, nil
}

func (f *Feed) handleMessage(ctx context.Context, msg []byte) {
	rows, err := wire.Decode(msg)
	if err != nil {
		f.logger.Warn(ctx, "dropping invalid feed message", "error", err, "bytes", len(msg))
		return
	}

	f.mu.Lock()
	f.rows = rows
	f.updatedAt = time.Now()
	f.mu.Unlock()

	f.firstOnce.Do(func() { close(f.first) })
	f.logger.Debug(ctx, "feed snapshot received", "rows", len(rows))
}

func (f *Feed) handleState(state wsconn.State, err error) {
	ctx := context.Background()
	switch state {
	case wsconn.StateConnected:
		f.logger.Info(ctx, "pools feed connected", "url", f.cfg.URL)
		go f.subscribe()
	case wsconn.StateReconnecting:
		f.logger.Warn(ctx, "pools feed dropped, reconnecting", "error", err)
	case wsconn.StateDisconnected:
		if err != nil {
			f.logger.Warn(ctx, "pools feed disconnected", "error", err)
		}
	}
}

func (f *Feed) subscribe() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := subscribeRequest{Type: "subscribe", Channel: "pools", Account: f.cfg.Account}
	if err := f.client.SendJSON(ctx, req); err != nil {
		f.logger.Warn(ctx, "pools feed subscribe failed", "error", err)
	}
}
