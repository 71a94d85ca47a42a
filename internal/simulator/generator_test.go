package simulator

import (
	"FlowForge/internal/model"
	"errors"
	"math"
	"testing"
	"time"
)

func TestGenerateBatchDeterminism(t *testing.T) {
	mode := SingleAttack(model.LabelDDoS, 0.4, 30*time.Second)

	a, err := GenerateBatch(mode, 200, 42)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	b, err := GenerateBatch(mode, 200, 42)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("batch lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Timestamp.Equal(b[i].Timestamp) {
			t.Fatalf("record %d timestamps differ: %s vs %s", i, a[i].Timestamp, b[i].Timestamp)
		}
		// Compare everything else field by field; Timestamp and the IPs
		// need their own equality.
		if !a[i].SrcIP.Equal(b[i].SrcIP) || !a[i].DstIP.Equal(b[i].DstIP) {
			t.Fatalf("record %d addresses differ: %v->%v vs %v->%v", i, a[i].SrcIP, a[i].DstIP, b[i].SrcIP, b[i].DstIP)
		}
		if a[i].Label != b[i].Label || a[i].FwdPackets != b[i].FwdPackets ||
			a[i].FwdBytes != b[i].FwdBytes || a[i].Duration != b[i].Duration ||
			a[i].SrcPort != b[i].SrcPort || a[i].DstPort != b[i].DstPort {
			t.Fatalf("record %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateBatchSeedsDiffer(t *testing.T) {
	mode := Steady(100)
	a, _ := GenerateBatch(mode, 50, 1)
	b, _ := GenerateBatch(mode, 50, 2)

	same := true
	for i := range a {
		if !a[i].SrcIP.Equal(b[i].SrcIP) || a[i].FwdPackets != b[i].FwdPackets {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical batches")
	}
}

func TestGenerateBatchCardinality(t *testing.T) {
	mixed, err := MixedThreats(map[model.Label]float64{
		model.LabelBenign: 1,
		model.LabelDDoS:   1,
	})
	if err != nil {
		t.Fatalf("failed to build mixed mode: %v", err)
	}

	modes := []Mode{
		Steady(50),
		SingleAttack(model.LabelPortScan, 1.0, time.Minute),
		mixed,
		DailyCycle(50, nil),
	}
	for _, mode := range modes {
		for _, count := range []int{1, 10, 137} {
			flows, err := GenerateBatch(mode, count, 7)
			if err != nil {
				t.Fatalf("mode %s count %d: %v", mode.Kind, count, err)
			}
			if len(flows) != count {
				t.Errorf("mode %s: expected %d records, got %d", mode.Kind, count, len(flows))
			}
		}
	}
}

func TestSteadyAllBenign(t *testing.T) {
	flows, err := GenerateBatch(Steady(50), 500, 3)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	for i, f := range flows {
		if f.Label != model.LabelBenign {
			t.Fatalf("record %d: steady mode produced label %q", i, f.Label)
		}
	}
}

func TestSingleAttackIntensityBound(t *testing.T) {
	const count = 1000
	const intensity = 0.3

	mode := SingleAttack(model.LabelBruteForce, intensity, time.Minute)
	for _, seed := range []int64{1, 99, 2024} {
		flows, err := GenerateBatch(mode, count, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		attacks := 0
		for _, f := range flows {
			switch f.Label {
			case model.LabelBruteForce:
				attacks++
			case model.LabelBenign:
			default:
				t.Fatalf("seed %d: unexpected label %q", seed, f.Label)
			}
		}
		fraction := float64(attacks) / count
		if math.Abs(fraction-intensity) > 0.05 {
			t.Errorf("seed %d: attack fraction %.3f outside %.2f±0.05", seed, fraction, intensity)
		}
	}
}

func TestMixedThreatsNormalization(t *testing.T) {
	mode, err := MixedThreats(map[model.Label]float64{
		model.LabelBenign:   2,
		model.LabelDDoS:     1,
		model.LabelPortScan: 1,
	})
	if err != nil {
		t.Fatalf("failed to build mode: %v", err)
	}

	weights := mode.Weights()
	want := map[model.Label]float64{
		model.LabelBenign:   0.5,
		model.LabelDDoS:     0.25,
		model.LabelPortScan: 0.25,
	}
	for label, w := range want {
		if math.Abs(weights[label]-w) > 1e-9 {
			t.Errorf("label %s: weight %.4f, want %.4f", label, weights[label], w)
		}
	}

	// The effective sampling distribution should track the normalized
	// weights within tolerance.
	flows, err := GenerateBatch(mode, 2000, 11)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	counts := map[model.Label]int{}
	for _, f := range flows {
		counts[f.Label]++
	}
	for label, w := range want {
		fraction := float64(counts[label]) / float64(len(flows))
		if math.Abs(fraction-w) > 0.05 {
			t.Errorf("label %s: sampled fraction %.3f, want %.2f±0.05", label, fraction, w)
		}
	}
}

func TestGenerateBatchRejections(t *testing.T) {
	if _, err := GenerateBatch(Steady(50), 0, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("count=0: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := GenerateBatch(Steady(50), -5, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("count<0: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := MixedThreats(map[model.Label]float64{model.LabelBenign: -1, model.LabelDDoS: 2}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("negative weight: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := GenerateBatch(SingleAttack(model.LabelDDoS, 1.5, time.Second), 10, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("intensity>1: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := GenerateBatch(SingleAttack("Meteor", 0.5, time.Second), 10, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("unknown attack: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestTimestampsMonotonic(t *testing.T) {
	for _, mode := range []Mode{Steady(50), DailyCycle(50, nil)} {
		flows, err := GenerateBatch(mode, 300, 5)
		if err != nil {
			t.Fatalf("mode %s: %v", mode.Kind, err)
		}
		for i := 1; i < len(flows); i++ {
			if flows[i].Timestamp.Before(flows[i-1].Timestamp) {
				t.Fatalf("mode %s: timestamp at %d went backwards", mode.Kind, i)
			}
		}
	}
}

func TestDailyCycleScheduledAttacks(t *testing.T) {
	flows, err := GenerateBatch(DailyCycle(50, nil), 2400, 17)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	// Records are spread over 24h; bucket labels by hour.
	perHour := map[int]map[model.Label]int{}
	for _, f := range flows {
		hour := f.Timestamp.Sub(flows[0].Timestamp).Hours()
		h := int(hour)
		if perHour[h] == nil {
			perHour[h] = map[model.Label]int{}
		}
		perHour[h][f.Label]++
	}

	if perHour[14][model.LabelDDoS] == 0 {
		t.Error("expected DDoS records in the hour-14 window")
	}
	if perHour[20][model.LabelPortScan] == 0 {
		t.Error("expected PortScan records in the hour-20 window")
	}
	for h, labels := range perHour {
		if h == 14 || h == 20 {
			continue
		}
		for label, n := range labels {
			if label != model.LabelBenign {
				t.Errorf("hour %d: unscheduled attack %s (%d records)", h, label, n)
			}
		}
	}
}

func TestAttackFlowsCarryTraffic(t *testing.T) {
	for _, attack := range model.AttackLabels() {
		flows, err := GenerateBatch(SingleAttack(attack, 1.0, time.Minute), 500, 31)
		if err != nil {
			t.Fatalf("%s: generation failed: %v", attack, err)
		}
		for i := range flows {
			if flows[i].Label != attack {
				continue
			}
			if flows[i].TotalPackets() == 0 {
				t.Fatalf("%s: record %d carries zero packets", attack, i)
			}
		}
	}
}

func TestFlowFeatureInvariants(t *testing.T) {
	mixed, _ := MixedThreats(map[model.Label]float64{
		model.LabelBenign:     1,
		model.LabelDDoS:       1,
		model.LabelPortScan:   1,
		model.LabelBruteForce: 1,
		model.LabelBot:        1,
	})
	flows, err := GenerateBatch(mixed, 1000, 23)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	for i, f := range flows {
		if f.SrcIP == nil || f.DstIP == nil {
			t.Fatalf("record %d: nil address", i)
		}
		if f.Duration < 0 {
			t.Fatalf("record %d: negative duration %s", i, f.Duration)
		}
		if f.PacketsPerSec < 0 || f.BytesPerSec < 0 {
			t.Fatalf("record %d: negative rate", i)
		}
		if f.ID != uint64(i)+1 {
			t.Fatalf("record %d: expected ID %d, got %d", i, i+1, f.ID)
		}
	}
}
