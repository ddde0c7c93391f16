// Package inspect turns raw DNS messages into decoded headers, statistics,
// and recorded anomalies.
//
// The Inspector is the single entry point the listeners feed. Every message
// is decoded with the strict header decoder; successes update counters and
// the query/response correlator, failures are classified by cause and
// queued for persistence. When responding is enabled, queries additionally
// get a header-only error reply so well-behaved clients fail fast instead
// of retrying into a void.
package inspect

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jroosing/dnslens/internal/bitio"
	"github.com/jroosing/dnslens/internal/correlate"
	"github.com/jroosing/dnslens/internal/database"
	"github.com/jroosing/dnslens/internal/dnswire"
	"github.com/jroosing/dnslens/internal/helpers"
	"github.com/jroosing/dnslens/internal/metrics"
)

// Anomaly kinds, as recorded and exported over the API.
const (
	KindTruncated     = "truncated"
	KindUnknownOpcode = "unknown_opcode"
	KindUnknownRCode  = "unknown_rcode"
	KindReservedBits  = "reserved_bits"
	KindOversize      = "oversize"
)

// rawPrefixBytes bounds how much of a malformed message is kept with its
// anomaly record. The header region is all the decoder ever looks at.
const rawPrefixBytes = dnswire.HeaderSize

// anomalyQueueSize bounds the asynchronous persistence queue. Overflow is
// dropped and counted rather than stalling the listeners.
const anomalyQueueSize = 1024

// Config wires an Inspector's collaborators. Logger, Metrics, DB and Feed
// are optional; Stats and Tracker default to fresh instances.
type Config struct {
	Logger  *slog.Logger
	Stats   *Stats
	Tracker *correlate.Tracker
	Metrics *metrics.Metrics
	DB      *database.DB
	Feed    Feed
	Respond bool
}

// Inspector decodes and classifies observed DNS traffic.
type Inspector struct {
	logger  *slog.Logger
	stats   *Stats
	tracker *correlate.Tracker
	metrics *metrics.Metrics
	db      *database.DB
	feed    Feed
	respond bool

	anomalyCh chan database.Anomaly
	dropped   atomic.Uint64

	flushMu sync.Mutex
	lastUDP TransportSnapshot
	lastTCP TransportSnapshot
}

// New creates an inspector from the given collaborators.
func New(cfg Config) *Inspector {
	if cfg.Stats == nil {
		cfg.Stats = NewStats()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = correlate.New(0, 0)
	}
	return &Inspector{
		logger:    cfg.Logger,
		stats:     cfg.Stats,
		tracker:   cfg.Tracker,
		metrics:   cfg.Metrics,
		db:        cfg.DB,
		feed:      cfg.Feed,
		respond:   cfg.Respond,
		anomalyCh: make(chan database.Anomaly, anomalyQueueSize),
	}
}

// Outcome is the result of inspecting one message.
type Outcome struct {
	Header  dnswire.Header // Valid only when Decoded is true
	Decoded bool
	Kind    string // Anomaly kind when not decoded, "" otherwise
	Reply   []byte // Error reply to send back, nil when none
}

// Inspect decodes one observed message, updates statistics and the
// correlator, and classifies failures. The returned outcome tells the
// listener whether a reply should be written back to the client.
func (i *Inspector) Inspect(ctx context.Context, transport, client string, msg []byte) Outcome {
	now := time.Now()

	if len(msg) > dnswire.MaxMessageSize {
		detail := fmt.Sprintf("message of %d bytes exceeds the %d byte inspection limit", len(msg), dnswire.MaxMessageSize)
		return i.handleAnomaly(ctx, transport, client, msg, now, KindOversize, detail, -1)
	}

	hdr, _, err := dnswire.DecodeHeader(msg)
	if err != nil {
		kind, bitOffset := classify(err)
		return i.handleAnomaly(ctx, transport, client, msg, now, kind, err.Error(), bitOffset)
	}

	i.stats.RecordHeader(transport, hdr.IsQuery)
	i.metrics.RecordDecoded(transport, hdr)

	var latencyMs float64
	if latency, matched := i.tracker.Observe(client, hdr, now); matched {
		ns := helpers.ClampLatencyNs(latency.Nanoseconds())
		i.stats.RecordMatch(transport, ns)
		i.metrics.RecordMatch(float64(ns) / 1e9)
		latencyMs = float64(ns) / 1e6
	}

	out := Outcome{Header: hdr, Decoded: true}
	if i.respond && hdr.IsQuery {
		out.Reply = i.buildReply(transport, hdr)
	}

	view := ViewOf(hdr)
	i.publish(Event{
		Time:      now,
		Transport: transport,
		Client:    client,
		Outcome:   "decoded",
		Header:    &view,
		LatencyMs: latencyMs,
	})
	i.logDecoded(ctx, transport, client, hdr, len(msg))
	return out
}

// classify maps a decode error to its anomaly kind and, when the error
// carries one, the bit position of the failure.
func classify(err error) (string, int) {
	var insufficient *bitio.InsufficientInputError
	if errors.As(err, &insufficient) {
		return KindTruncated, insufficient.BitOffset
	}
	var reserved *dnswire.ReservedBitsError
	if errors.As(err, &reserved) {
		return KindReservedBits, reserved.BitOffset
	}
	var opcode *dnswire.UnknownOpcodeError
	if errors.As(err, &opcode) {
		return KindUnknownOpcode, -1
	}
	var rcode *dnswire.UnknownRCodeError
	if errors.As(err, &rcode) {
		return KindUnknownRCode, -1
	}
	return "malformed", -1
}

func (i *Inspector) handleAnomaly(ctx context.Context, transport, client string, msg []byte, now time.Time, kind, detail string, bitOffset int) Outcome {
	i.stats.RecordMalformed(transport)
	i.metrics.RecordMalformed(transport, kind)

	i.queueAnomaly(database.Anomaly{
		ObservedAt: now,
		Transport:  transport,
		Client:     client,
		Kind:       kind,
		Detail:     detail,
		RawPrefix:  hex.EncodeToString(msg[:min(len(msg), rawPrefixBytes)]),
		BitOffset:  bitOffset,
	})

	out := Outcome{Kind: kind}
	if i.respond && kind != KindOversize {
		// Oversize messages may be perfectly well-formed, so no reply.
		out.Reply = i.buildRawReply(transport, msg, kind)
	}

	i.publish(Event{
		Time:      now,
		Transport: transport,
		Client:    client,
		Outcome:   kind,
		Detail:    detail,
	})
	i.logAnomaly(ctx, transport, client, kind, detail, len(msg))
	return out
}

// buildReply constructs a REFUSED reply to a successfully decoded query.
func (i *Inspector) buildReply(transport string, h dnswire.Header) []byte {
	reply, err := dnswire.BuildReply(h, dnswire.RCodeRefused)
	if err != nil {
		return nil
	}
	i.stats.RecordResponded(transport)
	i.metrics.RecordReply(dnswire.RCodeRefused)
	return reply
}

// buildRawReply constructs an error reply for a message that failed to
// decode: NOTIMP for unknown opcodes, FORMERR otherwise. Responses and
// messages too short to carry a transaction ID get no reply.
func (i *Inspector) buildRawReply(transport string, msg []byte, kind string) []byte {
	if len(msg) < 2 {
		return nil
	}
	if len(msg) >= 3 && msg[2]&byte(dnswire.QRFlag>>8) != 0 {
		// Never answer something that claims to be a response.
		return nil
	}

	rcode := dnswire.RCodeFormErr
	if kind == KindUnknownOpcode {
		rcode = dnswire.RCodeNotImp
	}

	reply, err := dnswire.BuildRawReply(msg, rcode)
	if err != nil {
		return nil
	}
	i.stats.RecordResponded(transport)
	i.metrics.RecordReply(rcode)
	return reply
}

// queueAnomaly hands an anomaly to the persistence goroutine without
// blocking the listener. Overflow is dropped and counted.
func (i *Inspector) queueAnomaly(a database.Anomaly) {
	if i.db == nil {
		return
	}
	select {
	case i.anomalyCh <- a:
	default:
		i.dropped.Add(1)
	}
}

// Run drains the anomaly queue into the database until ctx is cancelled.
// Anomalies are only persisted while Run is active.
func (i *Inspector) Run(ctx context.Context) {
	if i.db == nil {
		<-ctx.Done()
		return
	}
	for {
		select {
		case <-ctx.Done():
			// Write out whatever is already queued before returning.
			for {
				select {
				case a := <-i.anomalyCh:
					i.writeAnomaly(a)
				default:
					return
				}
			}
		case a := <-i.anomalyCh:
			i.writeAnomaly(a)
		}
	}
}

func (i *Inspector) writeAnomaly(a database.Anomaly) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := i.db.RecordAnomaly(ctx, a); err != nil && i.logger != nil {
		i.logger.Warn("Failed to record anomaly", "kind", a.Kind, "error", err)
	}
}

// FlushTraffic writes the counter deltas since the previous flush into
// their minute buckets and refreshes the outstanding-queries gauge. A
// failed write keeps its delta for the next flush.
func (i *Inspector) FlushTraffic(ctx context.Context) error {
	i.metrics.SetOutstanding(i.tracker.Stats().Outstanding)

	if i.db == nil {
		return nil
	}

	i.flushMu.Lock()
	defer i.flushMu.Unlock()

	snap := i.stats.Snapshot()
	now := time.Now()

	if p := trafficDelta(snap.UDP, i.lastUDP, now, "udp"); !trafficEmpty(p) {
		if err := i.db.AddTraffic(ctx, p); err != nil {
			return fmt.Errorf("failed to flush udp traffic: %w", err)
		}
	}
	i.lastUDP = snap.UDP

	if p := trafficDelta(snap.TCP, i.lastTCP, now, "tcp"); !trafficEmpty(p) {
		if err := i.db.AddTraffic(ctx, p); err != nil {
			return fmt.Errorf("failed to flush tcp traffic: %w", err)
		}
	}
	i.lastTCP = snap.TCP

	return nil
}

func trafficDelta(cur, prev TransportSnapshot, bucket time.Time, transport string) database.TrafficPoint {
	return database.TrafficPoint{
		Bucket:    bucket,
		Transport: transport,
		Headers:   int64(cur.Headers - prev.Headers),
		Queries:   int64(cur.Queries - prev.Queries),
		Responses: int64(cur.Responses - prev.Responses),
		Malformed: int64(cur.Malformed - prev.Malformed),
		Responded: int64(cur.Responded - prev.Responded),
		Matched:   int64(cur.Matched - prev.Matched),
	}
}

func trafficEmpty(p database.TrafficPoint) bool {
	return p.Headers == 0 && p.Malformed == 0 && p.Responded == 0 && p.Matched == 0
}

// Stats returns the cumulative inspection statistics.
func (i *Inspector) Stats() Snapshot {
	return i.stats.Snapshot()
}

// Correlator returns the current correlator statistics.
func (i *Inspector) Correlator() correlate.Snapshot {
	return i.tracker.Stats()
}

// DroppedAnomalies returns how many anomalies were dropped because the
// persistence queue was full.
func (i *Inspector) DroppedAnomalies() uint64 {
	return i.dropped.Load()
}

func (i *Inspector) publish(e Event) {
	if i.feed == nil {
		return
	}
	i.feed.Publish(e)
}

func (i *Inspector) logDecoded(ctx context.Context, transport, client string, h dnswire.Header, size int) {
	if i.logger == nil || !i.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	i.logger.Debug(
		"header decoded",
		"transport", transport,
		"client", client,
		"id", int(h.ID),
		"query", h.IsQuery,
		"opcode", h.Opcode.String(),
		"rcode", h.ResponseCode.String(),
		"bytes", size,
	)
}

func (i *Inspector) logAnomaly(ctx context.Context, transport, client, kind, detail string, size int) {
	if i.logger == nil || !i.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	i.logger.Debug(
		"header anomaly",
		"transport", transport,
		"client", client,
		"kind", kind,
		"detail", detail,
		"bytes", size,
	)
}
