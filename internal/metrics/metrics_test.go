package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/jroosing/dnslens/internal/dnswire"
)

func TestMetricsNilSafe(t *testing.T) {
	// All methods on a nil *Metrics must not panic.
	var m *Metrics

	m.RecordDecoded("udp", dnswire.Header{})
	m.RecordMalformed("udp", "truncated")
	m.RecordReply(dnswire.RCodeRefused)
	m.RecordMatch(0.005)
	m.SetOutstanding(3)
	m.RecordRateLimited()
}

func TestRecordDecoded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	query := dnswire.Header{Opcode: dnswire.OpcodeQuery, IsQuery: true}
	response := dnswire.Header{Opcode: dnswire.OpcodeQuery, ResponseCode: dnswire.RCodeNXDomain}

	m.RecordDecoded("udp", query)
	m.RecordDecoded("udp", response)
	m.RecordDecoded("tcp", response)

	if got := counterValue(t, m.HeadersTotal, "udp", "decoded"); got != 2 {
		t.Errorf("HeadersTotal{udp,decoded} = %f, want 2", got)
	}
	if got := counterValue(t, m.HeadersTotal, "tcp", "decoded"); got != 1 {
		t.Errorf("HeadersTotal{tcp,decoded} = %f, want 1", got)
	}
	if got := counterValue(t, m.OpcodesTotal, "QUERY"); got != 3 {
		t.Errorf("OpcodesTotal{QUERY} = %f, want 3", got)
	}

	// Only the two responses contribute response codes.
	if got := counterValue(t, m.RCodesTotal, "NXDOMAIN"); got != 2 {
		t.Errorf("RCodesTotal{NXDOMAIN} = %f, want 2", got)
	}
	if got := counterValue(t, m.RCodesTotal, "NOERROR"); got != 0 {
		t.Errorf("RCodesTotal{NOERROR} = %f, want 0 (queries do not count)", got)
	}
}

func TestRecordMalformed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordMalformed("udp", "truncated")
	m.RecordMalformed("udp", "truncated")
	m.RecordMalformed("udp", "reserved_bits")

	if got := counterValue(t, m.HeadersTotal, "udp", "malformed"); got != 3 {
		t.Errorf("HeadersTotal{udp,malformed} = %f, want 3", got)
	}
	if got := counterValue(t, m.AnomaliesTotal, "truncated"); got != 2 {
		t.Errorf("AnomaliesTotal{truncated} = %f, want 2", got)
	}
	if got := counterValue(t, m.AnomaliesTotal, "reserved_bits"); got != 1 {
		t.Errorf("AnomaliesTotal{reserved_bits} = %f, want 1", got)
	}
}

func TestRecordReply(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordReply(dnswire.RCodeRefused)
	m.RecordReply(dnswire.RCodeRefused)
	m.RecordReply(dnswire.RCodeFormErr)

	if got := counterValue(t, m.RepliesTotal, "REFUSED"); got != 2 {
		t.Errorf("RepliesTotal{REFUSED} = %f, want 2", got)
	}
	if got := counterValue(t, m.RepliesTotal, "FORMERR"); got != 1 {
		t.Errorf("RepliesTotal{FORMERR} = %f, want 1", got)
	}
}

// counterValue extracts the value from a CounterVec for the given labels.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	var metric io_prometheus_client.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}
