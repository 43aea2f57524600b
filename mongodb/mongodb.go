package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const defaultConnectTimeout = 10 * time.Second

type Options struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Client owns the single long-lived store connection. The connection is
// made on the first call that needs it; concurrent first callers wait for
// that attempt and share its result. A failed attempt is returned to the
// callers that waited on it and is not cached.
type Client struct {
	opts Options
	dial func(ctx context.Context, opts Options) (*mongo.Client, error)

	mu     sync.Mutex
	client *mongo.Client
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URI) == "" {
		return nil, errors.New("mongodb: uri is required")
	}
	if strings.TrimSpace(opts.Database) == "" {
		return nil, errors.New("mongodb: database name is required")
	}
	if strings.TrimSpace(opts.Collection) == "" {
		return nil, errors.New("mongodb: collection name is required")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	return &Client{opts: opts, dial: dial}, nil
}

func dial(ctx context.Context, opts Options) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	return client, nil
}

// Connect returns the shared client, connecting if needed.
func (c *Client) Connect(ctx context.Context) (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := c.dial(ctx, c.opts)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

// Collection returns the movie collection on the shared client.
func (c *Client) Collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(c.opts.Database).Collection(c.opts.Collection), nil
}

// Ping checks that the store answers.
func (c *Client) Ping(ctx context.Context) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: ping: %w", err)
	}
	return nil
}

// Disconnect closes the shared client if one was made.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
