package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand/v2"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/jroosing/dnslens/internal/dnswire"
	"github.com/miekg/dns"
)

func main() {
	var (
		server      = flag.String("server", "127.0.0.1:5353", "Capture listener HOST:PORT")
		name        = flag.String("name", "example.com", "Query name")
		qtype       = flag.Int("qtype", 1, "Query type (numeric, A=1)")
		concurrency = flag.Int("concurrency", 200, "Number of concurrent workers")
		requests    = flag.Int("requests", 20000, "Total number of messages")
		corrupt     = flag.Float64("corrupt", 0, "Fraction of messages sent with a mangled header (0..1)")
		observe     = flag.Bool("observe", false, "Do not wait for replies (target runs without -respond)")
		timeout     = flag.Duration("timeout", 2*time.Second, "Per-request timeout")
		recvSize    = flag.Int("recv-size", 2048, "UDP receive buffer size")
	)
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		panic(err)
	}

	reqBytes, err := buildQuery(*name, uint16(*qtype))
	if err != nil {
		panic(err)
	}

	conc := *concurrency
	if conc < 1 {
		conc = 1
	}
	total := *requests
	if total < 1 {
		total = 1
	}
	frac := *corrupt
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	per := total / conc
	rem := total % conc

	lat := make([]float64, 0, total)
	var latMu sync.Mutex
	var sent, mangled int64
	var countMu sync.Mutex

	t0 := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < conc; i++ {
		n := per
		if i < rem {
			n++
		}
		if n <= 0 {
			continue
		}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			c, err := net.DialUDP("udp", nil, addr)
			if err != nil {
				return
			}
			defer c.Close()
			buf := make([]byte, *recvSize)
			msg := make([]byte, len(reqBytes))
			for j := 0; j < num; j++ {
				copy(msg, reqBytes)
				binary.BigEndian.PutUint16(msg[0:2], uint16(rand.IntN(1<<16)))
				out := msg
				isMangled := frac > 0 && rand.Float64() < frac
				if isMangled {
					out = mangle(msg)
				}

				start := time.Now()
				_ = c.SetDeadline(time.Now().Add(*timeout))
				if _, err := c.Write(out); err != nil {
					continue
				}
				countMu.Lock()
				sent++
				if isMangled {
					mangled++
				}
				countMu.Unlock()

				if *observe {
					continue
				}
				if _, err := c.Read(buf); err != nil {
					continue
				}
				ms := float64(time.Since(start).Microseconds()) / 1000.0
				latMu.Lock()
				lat = append(lat, ms)
				latMu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	elapsed := time.Since(t0).Seconds()

	fmt.Printf("server=%s name=%q qtype=%d concurrency=%d sent=%d mangled=%d\n",
		*server, *name, *qtype, conc, sent, mangled)
	fmt.Printf("elapsed_s=%.3f send_rate=%.1f/s\n", elapsed, float64(sent)/elapsed)

	if *observe {
		return
	}
	if len(lat) == 0 {
		fmt.Printf("no replies received (is the target running with -respond?)\n")
		return
	}
	sort.Float64s(lat)
	p50 := percentile(lat, 50)
	p95 := percentile(lat, 95)
	p99 := percentile(lat, 99)
	qps := float64(len(lat)) / elapsed

	fmt.Printf("replies=%d qps=%.1f\n", len(lat), qps)
	fmt.Printf("latency_ms p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n", p50, p95, p99, lat[0], lat[len(lat)-1])
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func buildQuery(name string, qtype uint16) ([]byte, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	return m.Pack()
}

// mangle produces one of the malformations the inspector classifies:
// a truncated header, an unassigned opcode, a set reserved bit, or an
// out-of-range response code.
func mangle(msg []byte) []byte {
	out := append([]byte(nil), msg...)
	flags := binary.BigEndian.Uint16(out[2:4])
	switch rand.IntN(4) {
	case 0:
		return out[:rand.IntN(dnswire.HeaderSize)]
	case 1:
		flags = (flags &^ dnswire.OpcodeMask) | 7<<dnswire.OpcodeShift
	case 2:
		flags |= 0x0040 // middle Z bit
	case 3:
		// Unknown rcodes only exist on responses.
		flags = flags | dnswire.QRFlag | (dnswire.RCodeMask & 12)
	}
	binary.BigEndian.PutUint16(out[2:4], flags)
	return out
}
