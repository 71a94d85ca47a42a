package query

import (
	"FlowForge/internal/config"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// LabelSummary aggregates stored flows for one traffic class.
type LabelSummary struct {
	Label         string  `json:"label"`
	FlowCount     uint64  `json:"flow_count"`
	TotalPackets  uint64  `json:"total_packets"`
	TotalBytes    uint64  `json:"total_bytes"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// TopSource is one entry of the top-talker ranking.
type TopSource struct {
	SrcIP      string `json:"src_ip"`
	FlowCount  uint64 `json:"flow_count"`
	TotalBytes uint64 `json:"total_bytes"`
}

// Querier defines the read side of flow storage.
type Querier interface {
	SummarizeLabels(ctx context.Context, since, until time.Time) ([]LabelSummary, error)
	TopSources(ctx context.Context, since time.Time, limit int) ([]TopSource, error)
}

// clickhouseQuerier implements Querier against the flow_records table.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// SummarizeLabels returns per-label counts and volumes in the window.
func (q *clickhouseQuerier) SummarizeLabels(ctx context.Context, since, until time.Time) ([]LabelSummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			Label,
			COUNT(*) AS FlowCount,
			SUM(FwdPackets + BwdPackets) AS TotalPackets,
			SUM(FwdBytes + BwdBytes) AS TotalBytes,
			AVG(Confidence) AS AvgConfidence
		FROM flow_records
	`)

	var whereClauses []string
	args := []interface{}{}

	if !since.IsZero() {
		whereClauses = append(whereClauses, "Timestamp >= ?")
		args = append(args, since)
	}
	if !until.IsZero() {
		whereClauses = append(whereClauses, "Timestamp <= ?")
		args = append(args, until)
	}
	if len(whereClauses) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	}
	queryBuilder.WriteString(" GROUP BY Label ORDER BY FlowCount DESC")

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var summaries []LabelSummary
	for rows.Next() {
		var s LabelSummary
		if err := rows.Scan(&s.Label, &s.FlowCount, &s.TotalPackets, &s.TotalBytes, &s.AvgConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan label summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, nil
}

// TopSources ranks source addresses by flow count since the given time.
func (q *clickhouseQuerier) TopSources(ctx context.Context, since time.Time, limit int) ([]TopSource, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			SrcIP,
			COUNT(*) AS FlowCount,
			SUM(FwdBytes + BwdBytes) AS TotalBytes
		FROM flow_records
		WHERE Timestamp >= ?
		GROUP BY SrcIP
		ORDER BY FlowCount DESC
		LIMIT ?
	`

	rows, err := q.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var sources []TopSource
	for rows.Next() {
		var s TopSource
		if err := rows.Scan(&s.SrcIP, &s.FlowCount, &s.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan top source: %w", err)
		}
		sources = append(sources, s)
	}

	return sources, nil
}
