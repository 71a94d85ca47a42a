package model

import (
	"net"
	"time"
)

// Protocol identifies the transport protocol of a flow.
type Protocol string

const (
	ProtoTCP  Protocol = "TCP"
	ProtoUDP  Protocol = "UDP"
	ProtoICMP Protocol = "ICMP"
)

// Label is the ground-truth traffic class of a flow.
type Label string

const (
	LabelBenign     Label = "Benign"
	LabelDDoS       Label = "DDoS"
	LabelPortScan   Label = "PortScan"
	LabelBruteForce Label = "BruteForce"
	LabelBot        Label = "Bot"
)

// AttackLabels returns the recognized attack classes, in a stable order.
func AttackLabels() []Label {
	return []Label{LabelDDoS, LabelPortScan, LabelBruteForce, LabelBot}
}

// IsAttack reports whether the label names an attack class.
func (l Label) IsAttack() bool {
	return l != LabelBenign && l != ""
}

// FlowRecord summarizes one simulated network connection.
// The label is set at creation and never mutated afterwards.
type FlowRecord struct {
	ID            uint64        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	SrcIP         net.IP        `json:"src_ip"`
	DstIP         net.IP        `json:"dst_ip"`
	SrcPort       uint16        `json:"src_port"`
	DstPort       uint16        `json:"dst_port"`
	Protocol      Protocol      `json:"protocol"`
	Duration      time.Duration `json:"duration"`
	FwdPackets    uint64        `json:"fwd_packets"`
	BwdPackets    uint64        `json:"bwd_packets"`
	FwdBytes      uint64        `json:"fwd_bytes"`
	BwdBytes      uint64        `json:"bwd_bytes"`
	PacketsPerSec float64       `json:"packets_per_sec"`
	BytesPerSec   float64       `json:"bytes_per_sec"`
	Label         Label         `json:"label"`
}

// TotalBytes returns the byte count across both directions.
func (f *FlowRecord) TotalBytes() uint64 {
	return f.FwdBytes + f.BwdBytes
}

// TotalPackets returns the packet count across both directions.
func (f *FlowRecord) TotalPackets() uint64 {
	return f.FwdPackets + f.BwdPackets
}
