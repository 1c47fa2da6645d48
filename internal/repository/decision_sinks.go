package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
)

// Execer is the slice of *sql.DB the ClickHouse sink needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ClickHouseSink appends records to a ReplacingMergeTree table, so a replayed id collapses on merge.
type ClickHouseSink struct {
	db    Execer
	table string
}

func NewClickHouseSink(db Execer, table string) *ClickHouseSink {
	return &ClickHouseSink{db: db, table: table}
}

func (s *ClickHouseSink) Append(ctx context.Context, rec models.Record) error {
	q := fmt.Sprintf("INSERT INTO %s (id, entity_type, symbol, payload, recorded_at) VALUES (?, ?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.EntityType,
		rec.Symbol,
		string(rec.Payload),
		rec.RecordedAt,
	); err != nil {
		return fmt.Errorf("clickhouse append %s: %w", rec.EntityType, err)
	}
	return nil
}

// Close is a no-op; the connection pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseSink) Close() error { return nil }

// Publisher is satisfied by *pkg/kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaSink publishes each record keyed by symbol so one asset's decisions stay ordered per partition.
type KafkaSink struct {
	pub   Publisher
	topic string
}

func NewKafkaSink(pub Publisher, topic string) *KafkaSink {
	return &KafkaSink{pub: pub, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, rec models.Record) error {
	return s.pub.Publish(ctx, s.topic, []byte(rec.Symbol), rec)
}

// Close is a no-op; the producer is shared with the log collector.
func (s *KafkaSink) Close() error { return nil }

// MemorySink keeps records in process. Used for local runs and tests.
type MemorySink struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

// Records returns a copy of everything appended so far.
func (s *MemorySink) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemorySink) Close() error { return nil }

var (
	_ domrepo.RecordSink = (*ClickHouseSink)(nil)
	_ domrepo.RecordSink = (*KafkaSink)(nil)
	_ domrepo.RecordSink = (*MemorySink)(nil)
)
