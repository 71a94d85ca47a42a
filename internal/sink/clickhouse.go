package sink

import (
	"FlowForge/internal/config"
	"FlowForge/internal/model"
	"context"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS flow_records (
    Timestamp      DateTime64(3),
    FlowID         UInt64,
    SrcIP          String,
    DstIP          String,
    SrcPort        UInt16,
    DstPort        UInt16,
    Protocol       String,
    DurationMs     Float64,
    FwdPackets     UInt64,
    BwdPackets     UInt64,
    FwdBytes       UInt64,
    BwdBytes       UInt64,
    PacketsPerSec  Float64,
    BytesPerSec    Float64,
    Label          String,
    PredictedLabel String,
    Confidence     Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMMDD(Timestamp)
ORDER BY (Timestamp, FlowID);
`

// ClickHouseWriter persists flow batches to the flow_records table.
type ClickHouseWriter struct {
	conn driver.Conn
}

var _ model.Writer = (*ClickHouseWriter)(nil)

// NewClickHouseWriter connects to ClickHouse and ensures the table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
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

// WriteFlows inserts a batch of classified flows. The predicted label
// and confidence columns stay empty when a flow carries no prediction.
func (w *ClickHouseWriter) WriteFlows(ctx context.Context, flows []model.FlowRecord) error {
	return w.WriteClassified(ctx, flows, nil)
}

// WriteClassified inserts a batch along with its predictions. The
// predictions slice, when non-nil, must be index-aligned with flows.
func (w *ClickHouseWriter) WriteClassified(ctx context.Context, flows []model.FlowRecord, preds []model.Prediction) error {
	if len(flows) == 0 {
		return nil
	}
	if preds != nil && len(preds) != len(flows) {
		return fmt.Errorf("prediction count %d does not match flow count %d", len(preds), len(flows))
	}

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO flow_records")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for i := range flows {
		flow := &flows[i]
		var predicted string
		var confidence float64
		if preds != nil {
			predicted = string(preds[i].Label)
			confidence = preds[i].Confidence
		}
		err = batch.Append(
			flow.Timestamp,
			flow.ID,
			flow.SrcIP.String(),
			flow.DstIP.String(),
			flow.SrcPort,
			flow.DstPort,
			string(flow.Protocol),
			float64(flow.Duration.Microseconds())/1000.0,
			flow.FwdPackets,
			flow.BwdPackets,
			flow.FwdBytes,
			flow.BwdBytes,
			flow.PacketsPerSec,
			flow.BytesPerSec,
			string(flow.Label),
			predicted,
			confidence,
		)
		if err != nil {
			return fmt.Errorf("failed to append flow to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d flows to ClickHouse", len(flows))
	return nil
}

// Close closes the underlying connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
