package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

// ClickHouseOptions are the connection details of the forwarded-hit ledger.
type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

type ClickHouseClient struct {
	Conn clickhouse.Conn
	log  *zap.Logger
}

const forwardedHitsDDL = `
	CREATE TABLE IF NOT EXISTS forwarded_hits (
		hit_id         UUID,
		timestamp      DateTime64(3),
		hit_type       LowCardinality(String),
		outcome        LowCardinality(String),
		tracking_id    String,
		client_id      String,
		document_path  String,
		document_title String,
		event_category String,
		event_action   String,
		event_label    String,
		event_value    Int64,
		transaction_id String,
		revenue        Decimal(18, 2),
		product_action LowCardinality(String),
		product_count  UInt32,
		ip_address     String,
		user_agent     String,
		latency_ms     Int64
	)
	ENGINE = MergeTree
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (hit_type, timestamp)
`

// openClickHouse is replaced in tests.
var openClickHouse = clickhouse.Open

func NewClickHouseDB(ctx context.Context, opts ClickHouseOptions, log *zap.Logger) (*ClickHouseClient, error) {
	if opts.Addr == "" || opts.Database == "" {
		return nil, fmt.Errorf("clickhouse address and database must be set")
	}

	options := &clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "instant-analytics", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := openClickHouse(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse via Native TCP: %w", err)
	}

	if err := conn.Ping(pingCtx); err != nil {
		if cerr := conn.Close(); cerr != nil {
			log.Warn("error closing unreachable ClickHouse connection", zap.Error(cerr))
		}
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Info("connected to ClickHouse", zap.String("addr", opts.Addr), zap.String("database", opts.Database))
	return &ClickHouseClient{Conn: conn, log: log}, nil
}

// EnsureSchema creates the forwarded_hits ledger table when it is missing.
func (c *ClickHouseClient) EnsureSchema(ctx context.Context) error {
	if err := c.Conn.Exec(ctx, forwardedHitsDDL); err != nil {
		return fmt.Errorf("failed to create forwarded_hits table: %w", err)
	}
	return nil
}

func (c *ClickHouseClient) Close() {
	if c == nil || c.Conn == nil {
		return
	}
	if err := c.Conn.Close(); err != nil {
		c.log.Error("error closing ClickHouse connection", zap.Error(err))
		return
	}
	c.log.Info("ClickHouse connection closed")
}
