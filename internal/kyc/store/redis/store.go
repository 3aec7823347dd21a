// Package redis keeps applications in Redis as zstd-compressed CBOR blobs
// with a sorted-set index on creation time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verity/internal/kyc/models"
	"verity/internal/platform/codec"
	id "verity/pkg/domain"
	"verity/pkg/platform/sentinel"
)

// maxTxRetries bounds optimistic retries when a WATCHed key changes.
const maxTxRetries = 10

// Store implements the application store on Redis. A positive ttl expires
// applications after their last write.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) appKey(appID id.ApplicationID) string {
	return s.prefix + "app:" + appID.String()
}

func (s *Store) indexKey() string {
	return s.prefix + "apps"
}

func (s *Store) Create(ctx context.Context, app *models.Application) error {
	data, err := codec.Pack(app)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.appKey(app.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	if !ok {
		return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrConflict)
	}
	err = s.client.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(app.CreatedAt.UnixMilli()),
		Member: app.ID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("index application: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	return s.get(ctx, s.client, appID)
}

func (s *Store) Update(ctx context.Context, app *models.Application) error {
	_, err := s.Execute(ctx, app.ID, nil, func(stored *models.Application) {
		*stored = *app.Clone()
	})
	return err
}

func (s *Store) Delete(ctx context.Context, appID id.ApplicationID) error {
	n, err := s.client.Del(ctx, s.appKey(appID)).Result()
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if err := s.client.ZRem(ctx, s.indexKey(), appID.String()).Err(); err != nil {
		return fmt.Errorf("unindex application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	return nil
}

// List reads every indexed application. Index entries whose key expired are
// pruned as they are found.
func (s *Store) List(ctx context.Context) ([]*models.Application, error) {
	members, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.prefix + "app:" + m
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}

	apps := make([]*models.Application, 0, len(values))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, members[i])
			continue
		}
		var app models.Application
		if err := codec.Unpack([]byte(raw), &app); err != nil {
			return nil, fmt.Errorf("decode application %s: %w", members[i], err)
		}
		apps = append(apps, normalize(&app))
	}
	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, s.indexKey(), stale...).Err()
	}

	models.SortNewestFirst(apps)
	return apps, nil
}

// Execute runs validate and mutate under WATCH and retries when another
// writer changed the application in between.
func (s *Store) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	key := s.appKey(appID)
	var result *models.Application

	txf := func(tx *redis.Tx) error {
		app, err := s.get(ctx, tx, appID)
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(app); err != nil {
				return err
			}
		}
		mutate(app)
		data, err := codec.Pack(app)
		if err != nil {
			return fmt.Errorf("encode application: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = app
		return nil
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("application %s: too many concurrent updates: %w", appID, sentinel.ErrConflict)
}

// getter is satisfied by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) get(ctx context.Context, c getter, appID id.ApplicationID) (*models.Application, error) {
	data, err := c.Get(ctx, s.appKey(appID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	var app models.Application
	if err := codec.Unpack(data, &app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	return normalize(&app), nil
}

func normalize(app *models.Application) *models.Application {
	if app.Documents == nil {
		app.Documents = []models.Document{}
	}
	return app
}
