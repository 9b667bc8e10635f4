package netflow

import (
	"net"

	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/record"
	flowpb "github.com/netsampler/goflow2/v2/pb"
	"google.golang.org/protobuf/proto"
)

// Flow attribute names produced by the protobuf decoder.
const (
	fieldSrcPort   = "src_port"
	fieldDstPort   = "dst_port"
	fieldL4Proto   = "l4_proto"
	fieldBytes     = "bytes"
	fieldPkts      = "pkts"
	fieldSensorIP  = "sensor_ip"
	fieldDirection = "direction"
)

// decodeFlow turns one inbound message into a flow record. Collectors
// publish goflow2 protobuf FlowMessages; records that were already
// normalized upstream arrive as JSON objects and pass through as-is.
func decodeFlow(data []byte) (record.Record, error) {
	if len(data) > 0 && data[0] == '{' {
		return record.Unmarshal(data)
	}

	var flow flowpb.FlowMessage

	if err := proto.Unmarshal(data, &flow); err != nil {
		return nil, err
	}

	rec := record.Record{
		enrich.FieldSrcAddr: net.IP(flow.SrcAddr).String(),
		enrich.FieldDstAddr: net.IP(flow.DstAddr).String(),
		fieldSrcPort:        int64(flow.SrcPort),
		fieldDstPort:        int64(flow.DstPort),
		fieldL4Proto:        int64(flow.Proto),
		fieldBytes:          int64(flow.Bytes),
		fieldPkts:           int64(flow.Packets),
	}

	if flow.SrcMac != 0 {
		rec[enrich.FieldClientMAC] = macString(flow.SrcMac)
	}

	if len(flow.SamplerAddress) > 0 {
		rec[fieldSensorIP] = net.IP(flow.SamplerAddress).String()
	}

	if flow.TimeReceivedNs > 0 {
		rec[enrich.FieldTimestamp] = int64(flow.TimeReceivedNs / 1e9)
	}

	if flow.TimeFlowStartNs > 0 {
		rec[enrich.FieldFirstSwitched] = int64(flow.TimeFlowStartNs / 1e9)
	}

	return rec, nil
}

// macString renders the low 48 bits as a colon-separated MAC address.
func macString(mac uint64) string {
	hw := net.HardwareAddr{
		byte(mac >> 40),
		byte(mac >> 32),
		byte(mac >> 24),
		byte(mac >> 16),
		byte(mac >> 8),
		byte(mac),
	}

	return hw.String()
}
