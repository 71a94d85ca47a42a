// Package pcap renders simulated flow records into pcap files so the
// synthetic traffic can be inspected with standard capture tooling.
package pcap

import (
	"FlowForge/internal/model"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapshotLen = 65536

// maxPacketsPerDirection caps how many representative packets one flow
// contributes, so volumetric attack flows do not balloon the file.
const maxPacketsPerDirection = 4

var (
	srcMAC = []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = []byte{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

// WriteFlows writes representative packets for each flow to a pcap file.
func WriteFlows(path string, flows []model.FlowRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pcap file: %w", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(snapshotLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap header: %w", err)
	}

	for i := range flows {
		if err := writeFlow(w, &flows[i]); err != nil {
			return fmt.Errorf("failed to write flow %d: %w", flows[i].ID, err)
		}
	}

	return nil
}

// writeFlow emits forward and backward packets for one flow, sized by
// the flow's average payload per packet.
func writeFlow(w *pcapgo.Writer, flow *model.FlowRecord) error {
	fwd := capPackets(flow.FwdPackets)
	bwd := capPackets(flow.BwdPackets)

	for i := uint64(0); i < fwd; i++ {
		data, err := buildPacket(flow, false, i == 0)
		if err != nil {
			return err
		}
		if err := writePacket(w, flow, data); err != nil {
			return err
		}
	}
	for i := uint64(0); i < bwd; i++ {
		data, err := buildPacket(flow, true, false)
		if err != nil {
			return err
		}
		if err := writePacket(w, flow, data); err != nil {
			return err
		}
	}
	return nil
}

func writePacket(w *pcapgo.Writer, flow *model.FlowRecord, data []byte) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     flow.Timestamp,
		CaptureLength: len(data),
		Length:        len(data),
	}
	return w.WritePacket(ci, data)
}

// buildPacket serializes one packet of the flow. reverse swaps the
// endpoints for backward-direction packets; syn marks the first
// forward packet of a TCP flow.
func buildPacket(flow *model.FlowRecord, reverse, syn bool) ([]byte, error) {
	srcIP := flow.SrcIP.To4()
	dstIP := flow.DstIP.To4()
	srcPort := flow.SrcPort
	dstPort := flow.DstPort
	if reverse {
		srcIP, dstIP = dstIP, srcIP
		srcPort, dstPort = dstPort, srcPort
	}
	if srcIP == nil || dstIP == nil {
		return nil, fmt.Errorf("flow %d has a non-IPv4 address", flow.ID)
	}

	ethLayer := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		SrcIP:   srcIP,
		DstIP:   dstIP,
		Version: 4,
		TTL:     64,
	}

	payload := gopacket.Payload(make([]byte, payloadSize(flow, reverse)))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}

	switch flow.Protocol {
	case model.ProtoTCP:
		ipLayer.Protocol = layers.IPProtocolTCP
		tcpLayer := &layers.TCP{
			SrcPort: layers.TCPPort(srcPort),
			DstPort: layers.TCPPort(dstPort),
			SYN:     syn,
			ACK:     !syn,
			Window:  14600,
		}
		tcpLayer.SetNetworkLayerForChecksum(ipLayer)
		if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, tcpLayer, payload); err != nil {
			return nil, fmt.Errorf("failed to serialize TCP layers: %w", err)
		}

	case model.ProtoUDP:
		ipLayer.Protocol = layers.IPProtocolUDP
		udpLayer := &layers.UDP{
			SrcPort: layers.UDPPort(srcPort),
			DstPort: layers.UDPPort(dstPort),
		}
		udpLayer.SetNetworkLayerForChecksum(ipLayer)
		if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, udpLayer, payload); err != nil {
			return nil, fmt.Errorf("failed to serialize UDP layers: %w", err)
		}

	default: // ICMP
		ipLayer.Protocol = layers.IPProtocolICMPv4
		icmpType := layers.ICMPv4TypeEchoRequest
		if reverse {
			icmpType = layers.ICMPv4TypeEchoReply
		}
		icmpLayer := &layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(uint8(icmpType), 0),
		}
		if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, icmpLayer, payload); err != nil {
			return nil, fmt.Errorf("failed to serialize ICMP layers: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// payloadSize approximates the flow's average payload per packet in the
// given direction, bounded to something a single frame can carry.
func payloadSize(flow *model.FlowRecord, reverse bool) int {
	packets, bytes := flow.FwdPackets, flow.FwdBytes
	if reverse {
		packets, bytes = flow.BwdPackets, flow.BwdBytes
	}
	if packets == 0 {
		return 0
	}
	size := bytes / packets
	if size > 1400 {
		size = 1400
	}
	return int(size)
}

func capPackets(n uint64) uint64 {
	if n > maxPacketsPerDirection {
		return maxPacketsPerDirection
	}
	return n
}
