package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
)

// ClientParams defines connection parameters for Client
type ClientParams struct {
	DSN      string        // sqlite file path or postgres dsn
	Attempts int           // connection attempts per acquisition, at least 1
	Delay    time.Duration // delay between connection attempts
}

// Client is a shared, lazily connected task store. The store is opened on the first
// call needing it and reused afterwards. Failed connections are not cached, the next call retries.
// Concurrent calls made while a connection is in progress wait for it instead of starting their own.
// Client is safe for concurrent use.
type Client struct {
	params ClientParams
	open   func(ctx context.Context, dsn string) (*SQLStore, error)

	mu      sync.Mutex
	store   *SQLStore
	pending *connAttempt // in-flight connection, nil if none
}

// connAttempt is a single connection cycle shared by all callers waiting for it.
// store and err are written before done is closed.
type connAttempt struct {
	done  chan struct{}
	store *SQLStore
	err   error
}

// NewClient makes a client without connecting to the database
func NewClient(params ClientParams) *Client {
	if params.Attempts < 1 {
		params.Attempts = 1
	}
	return &Client{params: params, open: NewSQLStore}
}

// Store returns the shared store, connecting on first use.
// The lock is never held while connecting, waiters give up as soon as their ctx is done.
func (c *Client) Store(ctx context.Context) (*SQLStore, error) {
	for {
		c.mu.Lock()
		if c.store != nil {
			st := c.store
			c.mu.Unlock()
			return st, nil
		}

		if c.pending == nil {
			attempt := &connAttempt{done: make(chan struct{})}
			c.pending = attempt
			c.mu.Unlock()

			attempt.store, attempt.err = c.connect(ctx)

			c.mu.Lock()
			if attempt.err == nil {
				c.store = attempt.store
			}
			c.pending = nil
			c.mu.Unlock()
			close(attempt.done)
			return attempt.store, attempt.err
		}

		attempt := c.pending
		c.mu.Unlock()

		select {
		case <-attempt.done:
		case <-ctx.Done():
			return nil, fmt.Errorf("database is not available: %w", ctx.Err())
		}
		if attempt.err == nil {
			return attempt.store, nil
		}
		// attempt was cut short by its owner's context, ours is still alive so try again
		if ctx.Err() == nil && (errors.Is(attempt.err, context.Canceled) || errors.Is(attempt.err, context.DeadlineExceeded)) {
			continue
		}
		return nil, attempt.err
	}
}

// connect opens the store with retries
func (c *Client) connect(ctx context.Context) (*SQLStore, error) {
	rptr := repeater.New(&strategy.FixedDelay{Repeats: c.params.Attempts, Delay: c.params.Delay})
	var store *SQLStore
	err := rptr.Do(ctx, func() error {
		st, err := c.open(ctx, c.params.DSN)
		if err != nil {
			log.Printf("[WARN] failed to connect to database: %v", err)
			return err
		}
		store = st
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database is not available: %w", err)
	}

	log.Printf("[INFO] connected to %s database", store.dialect)
	return store, nil
}

// List returns tasks matching the filter, newest first
func (c *Client) List(ctx context.Context, filter Filter) ([]Task, error) {
	st, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	return st.List(ctx, filter)
}

// Stats returns task counters
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	st, err := c.Store(ctx)
	if err != nil {
		return Stats{}, err
	}
	return st.Stats(ctx)
}

// Get returns a single task by id
func (c *Client) Get(ctx context.Context, id int64) (Task, error) {
	st, err := c.Store(ctx)
	if err != nil {
		return Task{}, err
	}
	return st.Get(ctx, id)
}

// Create inserts a new task
func (c *Client) Create(ctx context.Context, text string) (Task, error) {
	st, err := c.Store(ctx)
	if err != nil {
		return Task{}, err
	}
	return st.Create(ctx, text)
}

// Update applies patch to the task
func (c *Client) Update(ctx context.Context, id int64, patch TaskPatch) (Task, error) {
	st, err := c.Store(ctx)
	if err != nil {
		return Task{}, err
	}
	return st.Update(ctx, id, patch)
}

// Delete removes a single task
func (c *Client) Delete(ctx context.Context, id int64) error {
	st, err := c.Store(ctx)
	if err != nil {
		return err
	}
	return st.Delete(ctx, id)
}

// DeleteAll removes every task
func (c *Client) DeleteAll(ctx context.Context) (int64, error) {
	st, err := c.Store(ctx)
	if err != nil {
		return 0, err
	}
	return st.DeleteAll(ctx)
}

// Close closes the store if it was opened
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
