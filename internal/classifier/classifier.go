// Package classifier provides a heuristic flow classifier that scores
// each flow against per-class feature signatures and returns the best
// match with a confidence value. It stands in for a trained model when
// no model artifact is available, the same contract a model-backed
// implementation would satisfy.
package classifier

import (
	"FlowForge/internal/model"
)

// Threshold tunables for the per-class signatures. Chosen to separate
// the traffic classes by their dominant features, not fitted to data.
const (
	ddosPacketRate   = 500.0 // packets/s considered flood-like
	ddosMaxDuration  = 500   // ms
	scanMaxBytes     = 128
	scanMaxLowPort   = 1024
	bruteMinPackets  = 3
	bruteMaxPackets  = 12
	botMaxPackets    = 6
	botMaxBytes      = 2000
	benignFloorScore = 0.30
)

var bruteServicePorts = map[uint16]bool{22: true, 21: true, 3389: true}
var botServicePorts = map[uint16]bool{8080: true, 4444: true, 6666: true}

// Heuristic implements model.Classifier with threshold rules.
type Heuristic struct{}

// New creates a heuristic classifier.
func New() *Heuristic {
	return &Heuristic{}
}

// Classify scores the flow against every class signature and returns
// the arg-max label. Confidence is the winning score's share of the
// total score mass, so an ambiguous flow reports low confidence.
func (h *Heuristic) Classify(flow *model.FlowRecord) model.Prediction {
	scores := map[model.Label]float64{
		model.LabelDDoS:       ddosScore(flow),
		model.LabelPortScan:   portScanScore(flow),
		model.LabelBruteForce: bruteForceScore(flow),
		model.LabelBot:        botScore(flow),
	}

	// Evaluate in the fixed AttackLabels order so tied scores always
	// resolve to the same label.
	best := model.LabelBenign
	bestScore := benignFloorScore
	total := benignFloorScore
	for _, label := range model.AttackLabels() {
		score := scores[label]
		total += score
		if score > bestScore {
			best = label
			bestScore = score
		}
	}
	scores[model.LabelBenign] = benignFloorScore

	confidence := bestScore / total
	return model.Prediction{
		Label:      best,
		Confidence: confidence,
		Scores:     scores,
	}
}

// ddosScore looks for flood characteristics: very high packet rate,
// near-zero duration, one-directional volume to a web port.
func ddosScore(flow *model.FlowRecord) float64 {
	var score float64
	if flow.PacketsPerSec >= ddosPacketRate {
		score += 0.45
	}
	if flow.Duration.Milliseconds() <= ddosMaxDuration {
		score += 0.20
	}
	if flow.FwdPackets > 10 && flow.FwdPackets > 8*maxU(flow.BwdPackets, 1) {
		score += 0.25
	}
	if flow.DstPort == 80 || flow.DstPort == 443 {
		score += 0.10
	}
	return score
}

// portScanScore looks for single minimal probes to low ports.
func portScanScore(flow *model.FlowRecord) float64 {
	var score float64
	if flow.FwdPackets <= 2 && flow.BwdPackets <= 1 {
		score += 0.40
	}
	if flow.TotalBytes() <= scanMaxBytes*2 {
		score += 0.25
	}
	if flow.DstPort <= scanMaxLowPort && !bruteServicePorts[flow.DstPort] && flow.DstPort != 80 && flow.DstPort != 443 && flow.DstPort != 53 {
		score += 0.30
	}
	if flow.Protocol == model.ProtoTCP {
		score += 0.05
	}
	return score
}

// bruteForceScore looks for repeated small exchanges against a login
// service port.
func bruteForceScore(flow *model.FlowRecord) float64 {
	var score float64
	if bruteServicePorts[flow.DstPort] {
		score += 0.50
	}
	if flow.FwdPackets >= bruteMinPackets && flow.FwdPackets <= bruteMaxPackets {
		score += 0.25
	}
	if flow.FwdPackets > 0 && flow.FwdBytes/flow.FwdPackets <= 250 {
		score += 0.15
	}
	if flow.BwdPackets >= 2 {
		score += 0.10
	}
	return score
}

// botScore looks for small, symmetric beacons to C2-style ports.
func botScore(flow *model.FlowRecord) float64 {
	var score float64
	if botServicePorts[flow.DstPort] {
		score += 0.50
	}
	if flow.FwdPackets <= botMaxPackets && flow.BwdPackets <= botMaxPackets && flow.BwdPackets >= 1 {
		score += 0.20
	}
	if flow.TotalBytes() <= botMaxBytes {
		score += 0.15
	}
	if diff := int64(flow.FwdPackets) - int64(flow.BwdPackets); diff >= -2 && diff <= 2 {
		score += 0.10
	}
	return score
}

func maxU(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
