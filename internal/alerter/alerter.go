package alerter

import (
	"FlowForge/internal/config"
	"FlowForge/internal/model"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/google/uuid"
)

// windowTicks bounds the rolling statistics window the rules run over.
const windowTicks = 60

// Analyzer produces an optional AI assessment of a triggered alert
// summary.
type Analyzer interface {
	AnalyzeTraffic(ctx context.Context, input string) (string, error)
}

// TickStats is one tick's worth of aggregate statistics fed by the
// pipeline.
type TickStats struct {
	Flows            int
	LabeledAttacks   int
	PredictedAttacks int
}

// Alert is one triggered rule violation.
type Alert struct {
	ID        string    `json:"id"`
	Rule      string    `json:"rule"`
	Metric    string    `json:"metric"`
	Operator  string    `json:"operator"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Time      time.Time `json:"time"`
}

// Alerter evaluates rolling tick statistics against configured rules
// and sends consolidated notifications when rules are violated.
type Alerter struct {
	rules         []config.AlerterRule
	notifier      model.Notifier
	analyzer      Analyzer
	checkInterval time.Duration

	mu     sync.Mutex
	window []TickStats

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewAlerter creates a new Alerter instance. The analyzer may be nil
// when AI analysis is disabled.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier, analyzer Analyzer) (*Alerter, error) {
	interval, err := time.ParseDuration(cfg.CheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid check_interval for alerter: %w", err)
	}

	return &Alerter{
		rules:         cfg.Rules,
		notifier:      notifier,
		analyzer:      analyzer,
		checkInterval: interval,
		stopChan:      make(chan struct{}),
	}, nil
}

// Observe appends one tick's statistics to the rolling window. Safe for
// use from the pipeline goroutine while the evaluation loop runs.
func (a *Alerter) Observe(stats TickStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window = append(a.window, stats)
	if len(a.window) > windowTicks {
		a.window = a.window[len(a.window)-windowTicks:]
	}
}

// Start begins the periodic evaluation of alert rules.
func (a *Alerter) Start() {
	log.Println("Alerter started")

	a.wg.Add(1)
	defer a.wg.Done()

	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.evaluate()
		case <-a.stopChan:
			return
		}
	}
}

// Stop gracefully stops the evaluation loop and runs one final check.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.stopChan)
	a.wg.Wait()
	a.evaluate()
}

// Evaluate runs all rules against the current window and returns the
// triggered alerts. Exposed so the evaluation is testable without the
// loop.
func (a *Alerter) Evaluate() []Alert {
	a.mu.Lock()
	window := make([]TickStats, len(a.window))
	copy(window, a.window)
	a.mu.Unlock()

	if len(window) == 0 {
		return nil
	}

	var totalFlows, totalLabeled, totalPredicted int
	for _, s := range window {
		totalFlows += s.Flows
		totalLabeled += s.LabeledAttacks
		totalPredicted += s.PredictedAttacks
	}

	var alerts []Alert
	now := time.Now()
	for _, rule := range a.rules {
		var value float64
		switch rule.Metric {
		case "attack_fraction":
			if totalFlows == 0 {
				continue
			}
			value = float64(totalLabeled) / float64(totalFlows)
		case "flows_per_tick":
			value = float64(totalFlows) / float64(len(window))
		case "predicted_attacks":
			value = float64(totalPredicted)
		default:
			log.Printf("Warning: unknown metric %q in alerter rule %q", rule.Metric, rule.Name)
			continue
		}

		if check(value, rule.Threshold, rule.Operator) {
			alerts = append(alerts, Alert{
				ID:        uuid.New().String(),
				Rule:      rule.Name,
				Metric:    rule.Metric,
				Operator:  rule.Operator,
				Threshold: rule.Threshold,
				Value:     value,
				Time:      now,
			})
		}
	}

	return alerts
}

// evaluate runs the rules and sends one consolidated notification for
// all triggered alerts.
func (a *Alerter) evaluate() {
	alerts := a.Evaluate()
	if len(alerts) == 0 {
		return
	}

	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(alerts))

	var messages []string
	for _, alert := range alerts {
		messages = append(messages, formatAlert(alert))
	}

	body := "<h1>FlowForge Alert Summary</h1>" +
		"<p>The following alerts were triggered during the last check:</p><hr>" +
		strings.Join(messages, "<hr>")

	if analysis, err := a.getAIAnalysis(strings.Join(messages, "\n")); err != nil {
		log.Printf("Failed to get AI analysis: %v", err)
	} else if analysis != "" {
		html := markdown.ToHTML([]byte(analysis), nil, nil)
		body += "<hr><h2>AI-Powered Analysis</h2>" + string(html)
	}

	if a.notifier != nil {
		subject := fmt.Sprintf("FlowForge Alert Summary (%d Triggered)", len(alerts))
		if err := a.notifier.Send(subject, body); err != nil {
			log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
		} else {
			log.Printf("INFO: Consolidated alert notification sent successfully.")
		}
	}
}

// getAIAnalysis asks the analyzer for an assessment of the summary.
func (a *Alerter) getAIAnalysis(alertContent string) (string, error) {
	if a.analyzer == nil {
		return "", nil
	}

	log.Println("Requesting AI analysis for alert summary...")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return a.analyzer.AnalyzeTraffic(ctx, alertContent)
}

func formatAlert(alert Alert) string {
	return fmt.Sprintf("<h3>Alert: %s</h3>"+
		"<ul>"+
		"<li><b>ID:</b> <code>%s</code></li>"+
		"<li><b>Metric:</b> <code>%s</code></li>"+
		"<li><b>Condition:</b> <code>%s %.2f</code></li>"+
		"<li><b>Observed Value:</b> <code>%.4f</code></li>"+
		"</ul>",
		alert.Rule, alert.ID, alert.Metric, alert.Operator, alert.Threshold, alert.Value)
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		log.Printf("Warning: unknown operator '%s' in alerter rule", operator)
		return false
	}
}
