package pcap

import (
	"FlowForge/internal/simulator"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/pcapgo"
)

func TestWriteFlows(t *testing.T) {
	flows, err := simulator.GenerateBatch(simulator.Steady(20), 25, 7)
	if err != nil {
		t.Fatalf("failed to generate flows: %v", err)
	}

	path := filepath.Join(t.TempDir(), "flows.pcap")
	if err := WriteFlows(path, flows); err != nil {
		t.Fatalf("failed to write pcap: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open pcap: %v", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		t.Fatalf("failed to read pcap header: %v", err)
	}

	var want int
	for i := range flows {
		want += int(capPackets(flows[i].FwdPackets)) + int(capPackets(flows[i].BwdPackets))
	}

	var got int
	for {
		data, ci, err := r.ReadPacketData()
		if err != nil {
			break
		}
		if len(data) == 0 || ci.CaptureLength != len(data) {
			t.Errorf("packet %d has inconsistent capture info", got)
		}
		got++
	}

	if got != want {
		t.Errorf("expected %d packets, got %d", want, got)
	}
}

func TestWriteFlowsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pcap")
	if err := WriteFlows(path, nil); err != nil {
		t.Fatalf("failed to write empty pcap: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open pcap: %v", err)
	}
	defer f.Close()

	if _, err := pcapgo.NewReader(f); err != nil {
		t.Fatalf("empty pcap should still carry a valid header: %v", err)
	}
}
