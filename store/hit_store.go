package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"instantanalytics/api/database"
	"instantanalytics/api/models"
	"instantanalytics/api/utils"
)

// HitStore reads and writes the forwarded_hits ledger in ClickHouse.
type HitStore struct {
	DB  *database.ClickHouseClient
	log *zap.Logger
}

type HitCountByTime struct {
	Time    time.Time `json:"time"`
	HitType *string   `json:"hitType,omitempty"`
	Outcome string    `json:"outcome"`
	Count   uint64    `json:"count"`
}

func NewHitStore(chClient *database.ClickHouseClient, log *zap.Logger) *HitStore {
	return &HitStore{DB: chClient, log: log}
}

func (s *HitStore) InsertForwardedHits(ctx context.Context, hits []models.ForwardedHit) error {
	if len(hits) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO forwarded_hits (
			hit_id, timestamp, hit_type, outcome, tracking_id, client_id, document_path, document_title,
			event_category, event_action, event_label, event_value, transaction_id, revenue,
			product_action, product_count, ip_address, user_agent, latency_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, hit := range hits {
		hitID, err := uuid.Parse(hit.HitID)
		if err != nil {
			s.log.Warn("skipping hit with invalid id", zap.String("hit_id", hit.HitID), zap.Error(err))
			continue
		}
		err = batch.Append(
			hitID,
			hit.Timestamp,
			hit.HitType,
			hit.Outcome,
			hit.TrackingID,
			hit.ClientID,
			hit.DocumentPath,
			hit.DocumentTitle,
			hit.EventCategory,
			hit.EventAction,
			hit.EventLabel,
			hit.EventValue,
			hit.TransactionID,
			hit.Revenue,
			hit.ProductAction,
			hit.ProductCount,
			hit.IPAddress,
			hit.UserAgent,
			hit.LatencyMs,
		)
		if err != nil {
			s.log.Warn("error appending hit to batch", zap.String("hit_id", hit.HitID), zap.Error(err))
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	s.log.Debug("inserted forwarded hits", zap.Int("count", len(hits)))
	return nil
}

// GetHitCountsOverTime buckets ledger rows by interval and outcome,
// optionally restricted to one hit type.
func (s *HitStore) GetHitCountsOverTime(ctx context.Context, interval string, start, end time.Time, hitTypeFilter string) ([]HitCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	args := []interface{}{start, end}
	selectCols := fmt.Sprintf("toStartOf%s(timestamp) AS time_bucket, outcome, count() AS total_hits", interval)
	groupByCols := "time_bucket, outcome"
	whereClause := "WHERE timestamp >= ? AND timestamp <= ?"
	orderByCols := "time_bucket ASC, outcome ASC"
	isFilteringByType := hitTypeFilter != ""

	if isFilteringByType {
		selectCols += ", hit_type"
		groupByCols += ", hit_type"
		whereClause += " AND hit_type = ?"
		args = append(args, hitTypeFilter)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM forwarded_hits
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hit counts over time: %w", err)
	}
	defer rows.Close()

	var results []HitCountByTime
	for rows.Next() {
		var (
			current HitCountByTime
			hitType string
		)
		dest := []interface{}{&current.Time, &current.Outcome, &current.Count}
		if isFilteringByType {
			dest = append(dest, &hitType)
		}
		if err := rows.Scan(dest...); err != nil {
			s.log.Warn("error scanning hit count row", zap.Error(err))
			continue
		}
		if isFilteringByType {
			current.HitType = &hitType
		}
		results = append(results, current)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during hit counts over time query: %w", err)
	}

	return results, nil
}

// GetTopNPagePaths ranks document paths of page views that were sent.
func (s *HitStore) GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT document_path, count() AS view_count
		FROM forwarded_hits
		WHERE hit_type = 'pageview' AND outcome = 'sent' AND timestamp >= ? AND timestamp <= ?
		GROUP BY document_path
		ORDER BY view_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	var results []models.TopPathResult
	for rows.Next() {
		var pagePath string
		var count uint64
		if err := rows.Scan(&pagePath, &count); err != nil {
			s.log.Warn("error scanning top page path row", zap.Error(err))
			continue
		}
		results = append(results, models.TopPathResult{
			PagePath: pagePath,
			Count:    count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top page paths: %w", err)
	}

	return results, nil
}
