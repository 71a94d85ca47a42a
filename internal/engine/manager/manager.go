package manager

import (
	"FlowForge/internal/ai"
	"FlowForge/internal/alerter"
	"FlowForge/internal/classifier"
	"FlowForge/internal/config"
	"FlowForge/internal/model"
	"FlowForge/internal/notification"
	"FlowForge/internal/simulator"
	"FlowForge/internal/sink"
	"FlowForge/internal/stream"
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// writeTimeout bounds one batch insert so a stalled sink cannot wedge
// the tick loop.
const writeTimeout = 10 * time.Second

// Sink persists classified flow batches.
type Sink interface {
	WriteClassified(ctx context.Context, flows []model.FlowRecord, preds []model.Prediction) error
}

// Publisher fans generated flow batches out to downstream consumers.
type Publisher interface {
	Publish(flows []model.FlowRecord) error
}

// Manager orchestrates the generation pipeline: it ticks the live
// session, classifies each batch, and hands the results to the
// configured publisher, sink, and alerter.
type Manager struct {
	session    *simulator.Session
	classifier model.Classifier

	publisher Publisher
	sink      Sink
	alerter   *alerter.Alerter

	batchSize    int
	tickInterval time.Duration

	done chan struct{}
	wg   sync.WaitGroup

	closers []func()
}

// NewManager wires the pipeline from configuration. NATS, ClickHouse,
// and the alerter are each optional and skipped when disabled.
func NewManager(cfg *config.Config) (*Manager, error) {
	interval, err := time.ParseDuration(cfg.Simulator.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid tick_interval: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("tick_interval must be a positive duration")
	}

	session, err := simulator.NewSession(simulator.Steady(cfg.Simulator.BenignRate), cfg.Simulator.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m := &Manager{
		session:      session,
		classifier:   classifier.New(),
		batchSize:    cfg.Simulator.BatchSize,
		tickInterval: interval,
		done:         make(chan struct{}),
	}

	if cfg.NATS.Enabled {
		publisher, err := stream.NewPublisher(cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}
		m.publisher = publisher
		m.closers = append(m.closers, publisher.Close)
	}

	if cfg.ClickHouse.Enabled {
		writer, err := sink.NewClickHouseWriter(cfg.ClickHouse)
		if err != nil {
			return nil, fmt.Errorf("failed to create clickhouse writer: %w", err)
		}
		m.sink = writer
		m.closers = append(m.closers, func() {
			if err := writer.Close(); err != nil {
				log.Printf("Error closing ClickHouse connection: %v", err)
			}
		})
	}

	if cfg.Alerter.Enabled {
		var notifier model.Notifier
		if cfg.SMTP.Host != "" {
			notifier = notification.NewEmailNotifier(cfg.SMTP)
		}

		if notifier != nil {
			var analyzer alerter.Analyzer
			if cfg.Alerter.AIAnalysis.Enabled {
				a, err := ai.NewAnalyzer(&cfg.Alerter.AIAnalysis)
				if err != nil {
					return nil, fmt.Errorf("failed to create AI analyzer: %w", err)
				}
				analyzer = a
			}

			m.alerter, err = alerter.NewAlerter(&cfg.Alerter, notifier, analyzer)
			if err != nil {
				return nil, fmt.Errorf("failed to create alerter: %w", err)
			}
			log.Println("Alerter enabled and initialized.")
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	return m, nil
}

// Session exposes the live session so a control plane can inject
// attacks into the running pipeline.
func (m *Manager) Session() *simulator.Session {
	return m.session
}

// Start begins baseline generation and the tick loop.
func (m *Manager) Start() {
	m.session.Start()

	if m.alerter != nil {
		go m.alerter.Start()
	}

	m.wg.Add(1)
	go m.run()
	log.Printf("Manager started with tick interval %s and batch size %d.", m.tickInterval, m.batchSize)
}

func (m *Manager) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tick()
		case <-m.done:
			return
		}
	}
}

// tick generates one batch, classifies it, and fans it out.
func (m *Manager) tick() {
	result, err := m.session.Tick(m.batchSize)
	if err != nil {
		log.Printf("Error generating batch: %v", err)
		return
	}
	if result.StateChanged {
		log.Printf("Session state changed to %s", result.StateName)
	}

	preds := make([]model.Prediction, len(result.Flows))
	stats := alerter.TickStats{Flows: len(result.Flows)}
	for i := range result.Flows {
		preds[i] = m.classifier.Classify(&result.Flows[i])
		if result.Flows[i].Label.IsAttack() {
			stats.LabeledAttacks++
		}
		if preds[i].IsAttack() {
			stats.PredictedAttacks++
		}
	}

	if m.publisher != nil {
		if err := m.publisher.Publish(result.Flows); err != nil {
			log.Printf("Error publishing batch: %v", err)
		}
	}

	if m.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := m.sink.WriteClassified(ctx, result.Flows, preds); err != nil {
			log.Printf("Error writing batch: %v", err)
		}
		cancel()
	}

	if m.alerter != nil {
		m.alerter.Observe(stats)
	}
}

// Stop gracefully shuts down the pipeline.
func (m *Manager) Stop() {
	log.Println("Manager stopping...")

	close(m.done)
	m.wg.Wait()

	m.session.Stop()

	if m.alerter != nil {
		m.alerter.Stop()
	}

	for _, closer := range m.closers {
		closer()
	}

	log.Println("Manager stopped.")
}
