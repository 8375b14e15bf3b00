package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StakeWatch/internal/domain/models"
	domrepo "StakeWatch/internal/domain/repository"
	pkgch "StakeWatch/pkg/clickhouse"
	applogger "StakeWatch/pkg/logger"
)

const historyTable = "stakewatch.risk_history"

// HistorySchema is the idempotent DDL for the audit trail, applied via
// clickhouse.Client.InitSchema at startup.
var HistorySchema = []string{
	`CREATE DATABASE IF NOT EXISTS stakewatch`,
	`CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
        recorded_at   DateTime64(3, 'UTC'),
        user_address  LowCardinality(String),
        score         Float64,
        level         LowCardinality(String),
        slashing      Float64,
        liquidity     Float64,
        concentration Float64,
        market        Float64,
        data_quality  Float64
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(recorded_at)
    ORDER BY (user_address, recorded_at)
    TTL toDateTime(recorded_at) + INTERVAL 180 DAY`,
}

// CHRiskHistory implements RiskHistory backed by ClickHouse. Rows are
// append-only; the engine treats write failures as non-fatal.
type CHRiskHistory struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHRiskHistory(ch *pkgch.Client) *CHRiskHistory {
	return &CHRiskHistory{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHRiskHistory) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHRiskHistory) Record(ctx context.Context, m *models.RiskMetrics) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (recorded_at, user_address, score, level, slashing, liquidity, concentration, market, data_quality)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, historyTable)
	_, err := s.db.ExecContext(ctx, q,
		m.LastUpdated,
		m.UserAddress,
		m.OverallRiskScore,
		string(m.RiskLevel),
		m.Breakdown.Slashing,
		m.Breakdown.Liquidity,
		m.Breakdown.Concentration,
		m.Breakdown.Market,
		m.Metadata.DataQuality,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history insert error",
				applogger.String("user", m.UserAddress),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record risk history: %w", err)
	}
	return nil
}

func (s *CHRiskHistory) Range(ctx context.Context, userAddress string, from, to time.Time, limit int) ([]models.RiskHistoryPoint, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 1000
	}
	q := fmt.Sprintf(`
        SELECT recorded_at, user_address, score, level, slashing, liquidity, concentration, market, data_quality
        FROM %s
        WHERE user_address = ? AND recorded_at >= ? AND recorded_at <= ?
        ORDER BY recorded_at DESC
        LIMIT ?`, historyTable)
	rows, err := s.db.QueryContext(ctx, q, userAddress, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("user", userAddress),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query risk history: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.RiskHistoryPoint, 0, limit)
	for rows.Next() {
		var p models.RiskHistoryPoint
		var level string
		if err := rows.Scan(&p.RecordedAt, &p.UserAddress, &p.Score, &level,
			&p.Breakdown.Slashing, &p.Breakdown.Liquidity, &p.Breakdown.Concentration, &p.Breakdown.Market,
			&p.DataQuality); err != nil {
			return nil, fmt.Errorf("scan risk history: %w", err)
		}
		p.Level = models.RiskLevel(level)
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse history range ok",
			applogger.String("user", userAddress),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHRiskHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHRiskHistory) Close() error {
	return nil // pool managed by pkg client
}

var _ domrepo.RiskHistory = (*CHRiskHistory)(nil)
