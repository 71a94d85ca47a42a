package simulator

import (
	"FlowForge/internal/model"
	"math"
	"math/rand"
	"net"
	"strconv"
	"time"
)

// Distribution parameters for benign and attack traffic. None of these
// values are discovered constants; they are tunables chosen to produce
// plausible flow feature distributions for each traffic class.

// defaultBenignRate is the flow arrival rate used when a mode does not
// set one, in flows per second.
const defaultBenignRate = 50.0

// defaultAttackShare is the fraction of attack records generated while
// an attack is active (live sessions and scheduled daily windows).
const defaultAttackShare = 0.6

// outboundShare is the fraction of benign flows leaving the internal
// network rather than staying lateral.
const outboundShare = 0.7

var internalSubnets = []string{"192.168.1", "192.168.2", "10.0.0", "172.16.0"}

// Well-known external destinations: DNS resolvers, CDNs, big SaaS.
var externalIPs = []string{
	"8.8.8.8", "1.1.1.1", "208.67.222.222",
	"151.101.1.140", "104.244.42.1",
	"13.107.42.14", "20.190.128.0",
	"172.217.14.206", "142.250.80.46",
}

var protocolWeights = []struct {
	Proto  model.Protocol
	Weight float64
}{
	{model.ProtoTCP, 0.75},
	{model.ProtoUDP, 0.20},
	{model.ProtoICMP, 0.05},
}

var commonPorts = []struct {
	Port   uint16
	Weight float64
}{
	{443, 0.40}, // HTTPS
	{80, 0.25},  // HTTP
	{53, 0.10},  // DNS
	{22, 0.05},  // SSH
	{3389, 0.03},
	{445, 0.02},
	{25, 0.02},
	{21, 0.01},
}

// commonPortShare is the probability a benign destination port comes
// from the weighted table instead of the ephemeral range.
const commonPortShare = 0.85

// Attack profile tunables.
var (
	ddosVictim             = net.ParseIP("192.168.1.100")
	ddosPorts              = []uint16{80, 443}
	scanSource             = net.ParseIP("10.0.0.99")
	scanTarget             = net.ParseIP("192.168.1.10")
	brutePorts             = []uint16{22, 21, 3389}
	botPorts               = []uint16{443, 8080, 4444, 6666}
	bruteForceIntervalMean = 2000.0 // ms
)

const (
	ddosFwdPacketMean = 100.0
	ddosPayloadMean   = 1400.0
	ddosDurationMean  = 100.0 // ms
	scanDurationMean  = 50.0  // ms
	botDurationMean   = 1000.0
)

// benignFlow samples one benign flow. Timestamp and ID are filled in by
// the caller.
func benignFlow(rng *rand.Rand) model.FlowRecord {
	outbound := rng.Float64() < outboundShare

	srcIP := internalIP(rng)
	var dstIP net.IP
	if outbound {
		dstIP = externalIP(rng)
	} else {
		dstIP = internalIP(rng)
	}

	proto := sampleProtocol(rng)
	dstPort := benignPort(rng)
	srcPort := ephemeralPort(rng)

	var durationMs float64
	var fwdPackets, bwdPackets uint64
	switch proto {
	case model.ProtoTCP:
		durationMs = rng.ExpFloat64() * 5000
		fwdPackets = maxUint64(1, uint64(rng.ExpFloat64()*10))
		bwdPackets = uint64(rng.ExpFloat64() * 8)
	case model.ProtoUDP:
		durationMs = rng.ExpFloat64() * 1000
		fwdPackets = maxUint64(1, uint64(poisson(rng, 5)))
		bwdPackets = uint64(poisson(rng, 3))
	default: // ICMP
		durationMs = rng.ExpFloat64() * 500
		fwdPackets = uint64(1 + rng.Intn(4))
		bwdPackets = uint64(rng.Intn(3))
	}

	fwdBytes := fwdPackets * uint64(rng.ExpFloat64()*500)
	bwdBytes := bwdPackets * uint64(rng.ExpFloat64()*400)

	flow := model.FlowRecord{
		SrcIP:      srcIP,
		DstIP:      dstIP,
		SrcPort:    srcPort,
		DstPort:    dstPort,
		Protocol:   proto,
		Duration:   msToDuration(durationMs),
		FwdPackets: fwdPackets,
		BwdPackets: bwdPackets,
		FwdBytes:   fwdBytes,
		BwdBytes:   bwdBytes,
		Label:      model.LabelBenign,
	}
	fillRates(&flow)
	return flow
}

// attackFlow samples one flow of the given attack class, starting from
// a benign flow and overriding the class-defining features.
func attackFlow(rng *rand.Rand, attack model.Label) model.FlowRecord {
	flow := benignFlow(rng)

	switch attack {
	case model.LabelDDoS:
		// Volumetric: large one-directional bursts to one victim.
		flow.FwdPackets = maxUint64(1, uint64(rng.ExpFloat64()*ddosFwdPacketMean))
		flow.BwdPackets = uint64(rng.Intn(3))
		flow.FwdBytes = flow.FwdPackets * uint64(rng.ExpFloat64()*ddosPayloadMean)
		flow.BwdBytes = flow.BwdPackets * 64
		flow.Duration = msToDuration(rng.ExpFloat64() * ddosDurationMean)
		flow.DstIP = ddosVictim
		flow.DstPort = ddosPorts[rng.Intn(len(ddosPorts))]

	case model.LabelPortScan:
		// One probe per low port from a single scanner.
		flow.FwdPackets = 1
		flow.BwdPackets = uint64(rng.Intn(2))
		flow.FwdBytes = 64
		flow.BwdBytes = flow.BwdPackets * 64
		flow.Duration = msToDuration(rng.ExpFloat64() * scanDurationMean)
		flow.Protocol = model.ProtoTCP
		flow.SrcIP = scanSource
		flow.DstIP = scanTarget
		flow.DstPort = uint16(1 + rng.Intn(1024))

	case model.LabelBruteForce:
		// Repeated small login exchanges against one service port.
		flow.FwdPackets = uint64(3 + rng.Intn(6))
		flow.BwdPackets = uint64(2 + rng.Intn(4))
		flow.FwdBytes = flow.FwdPackets * uint64(50+rng.Intn(151))
		flow.BwdBytes = flow.BwdPackets * uint64(30+rng.Intn(71))
		flow.Duration = msToDuration(rng.ExpFloat64() * bruteForceIntervalMean)
		flow.Protocol = model.ProtoTCP
		flow.DstPort = brutePorts[rng.Intn(len(brutePorts))]

	case model.LabelBot:
		// Periodic low-volume beacons to an external C2 endpoint.
		flow.FwdPackets = uint64(1 + rng.Intn(3))
		flow.BwdPackets = uint64(1 + rng.Intn(3))
		flow.FwdBytes = flow.FwdPackets * uint64(50+rng.Intn(101))
		flow.BwdBytes = flow.BwdPackets * uint64(50+rng.Intn(451))
		flow.Duration = msToDuration(rng.ExpFloat64() * botDurationMean)
		flow.DstIP = randomPublicIP(rng)
		flow.DstPort = botPorts[rng.Intn(len(botPorts))]
	}

	flow.Label = attack
	fillRates(&flow)
	return flow
}

// hourFactor scales benign traffic volume by simulated time of day:
// business hours peak, evenings taper, nights idle.
func hourFactor(rng *rand.Rand, hour int) float64 {
	switch {
	case hour >= 9 && hour <= 17:
		return 1.0 + rng.Float64()*0.3
	case hour >= 18 && hour <= 22:
		return 0.7 + rng.Float64()*0.2
	default:
		return 0.3 + rng.Float64()*0.1
	}
}

func internalIP(rng *rand.Rand) net.IP {
	subnet := internalSubnets[rng.Intn(len(internalSubnets))]
	host := 1 + rng.Intn(254)
	return net.ParseIP(subnet + "." + strconv.Itoa(host))
}

func externalIP(rng *rand.Rand) net.IP {
	if rng.Float64() < 0.3 {
		return net.ParseIP(externalIPs[rng.Intn(len(externalIPs))])
	}
	return randomPublicIP(rng)
}

func randomPublicIP(rng *rand.Rand) net.IP {
	return net.IPv4(
		byte(1+rng.Intn(223)),
		byte(rng.Intn(256)),
		byte(rng.Intn(256)),
		byte(1+rng.Intn(254)),
	)
}

func sampleProtocol(rng *rand.Rand) model.Protocol {
	r := rng.Float64()
	var acc float64
	for _, pw := range protocolWeights {
		acc += pw.Weight
		if r < acc {
			return pw.Proto
		}
	}
	return protocolWeights[len(protocolWeights)-1].Proto
}

func benignPort(rng *rand.Rand) uint16 {
	if rng.Float64() < commonPortShare {
		r := rng.Float64() * portWeightSum()
		var acc float64
		for _, pw := range commonPorts {
			acc += pw.Weight
			if r < acc {
				return pw.Port
			}
		}
		return commonPorts[len(commonPorts)-1].Port
	}
	return uint16(1024 + rng.Intn(65535-1024))
}

func portWeightSum() float64 {
	var sum float64
	for _, pw := range commonPorts {
		sum += pw.Weight
	}
	return sum
}

func ephemeralPort(rng *rand.Rand) uint16 {
	return uint16(49152 + rng.Intn(65535-49152))
}

// poisson samples a Poisson variate via Knuth's method. Adequate for
// the small lambdas used here.
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// fillRates derives the per-second rates from totals and duration,
// clamping very short flows to 1ms to avoid division blowups.
func fillRates(flow *model.FlowRecord) {
	seconds := flow.Duration.Seconds()
	if seconds < 0.001 {
		seconds = 0.001
	}
	flow.PacketsPerSec = float64(flow.TotalPackets()) / seconds
	flow.BytesPerSec = float64(flow.TotalBytes()) / seconds
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
