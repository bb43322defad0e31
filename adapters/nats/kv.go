package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/typedcache/ports/kv"
)

var (
	ErrEntryTTL = errors.New("per-entry ttl is not supported, configure the bucket ttl instead")
)

type KvConfig struct {
	Connect Connector     // defaults to ConnectDefault()
	Log     *slog.Logger  // defaults to slog.Default()
	Bucket  string        // required
	TTL     time.Duration // max age of every entry in the bucket, 0 = keep forever
}

// KvStore is a kv.Store backed by a JetStream key-value bucket.
type KvStore struct {
	kv    jetstream.KeyValue
	log   *slog.Logger
	close closeFunc
}

func NewKvStore(ctx context.Context, cfg KvConfig) (*KvStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("bucket", cfg.Bucket))

	nc, closeConn, err := doConnect()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		closeConn()
		return nil, err
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  cfg.Bucket,
		TTL:     cfg.TTL,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
	}

	log.Debug("kv store ready", slog.Duration("ttl", cfg.TTL))

	return &KvStore{kv: bucket, log: log, close: closeConn}, nil
}

type kvRecord struct {
	Data []byte         `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

func (k *KvStore) Put(ctx context.Context, key string, entry kv.Entry, opts kv.PutOptions) error {
	if opts.TTL > 0 {
		return ErrEntryTTL
	}

	data, err := json.Marshal(kvRecord{Data: entry.Data, Meta: entry.Meta})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	rev, err := k.kv.Put(ctx, key, data)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	k.log.Debug("kv put", slog.String("key", key), slog.Uint64("revision", rev))
	return nil
}

func (k *KvStore) Get(ctx context.Context, key string) (entry kv.Entry, err error) {
	v, err := k.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return entry, kv.ErrNotFound
		}
		return entry, fmt.Errorf("get %s: %w", key, err)
	}

	var rec kvRecord
	if err = json.Unmarshal(v.Value(), &rec); err != nil {
		return entry, fmt.Errorf("decode %s: %w", key, err)
	}
	return kv.Entry{Data: rec.Data, Meta: rec.Meta}, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (k *KvStore) Delete(ctx context.Context, key string) error {
	err := k.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the connection lease of the store.
func (k *KvStore) Close() {
	k.close()
}

var _ kv.Store = (*KvStore)(nil)
