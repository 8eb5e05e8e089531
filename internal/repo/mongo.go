// Package repo implements the data persistence layer, backed by MongoDB.
// This file contains the connection bootstrap: URI validation, pool sizing
// and client construction. Failures here are fatal to process startup; no
// retries are attempted.
package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/tbourn/go-mongo-skeleton/internal/config"
)

// Bootstrap failures.
var (
	ErrInvalidURI       = errors.New("invalid mongodb uri")
	ErrConnectionFailed = errors.New("mongodb connection failed")
)

// Mongo owns the client pool and the logical database handle.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// connect is a seam for tests.
var connect = mongo.Connect

// OpenMongo validates cfg.URI, applies the pool bound and constructs a
// client. The driver connects lazily, so an unreachable server surfaces on
// first use (see Ping), not here.
func OpenMongo(ctx context.Context, cfg config.Database) (*Mongo, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client, err := connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Mongo{
		Client:   client,
		Database: client.Database(cfg.Name),
	}, nil
}

// clientOptions builds driver options from cfg. The URI is parsed up front
// so malformed strings are reported as ErrInvalidURI rather than surfacing
// as a generic connect error.
func clientOptions(cfg config.Database) (*options.ClientOptions, error) {
	if _, err := connstring.ParseAndValidate(cfg.URI); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return opts, nil
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client and releases the pool.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
