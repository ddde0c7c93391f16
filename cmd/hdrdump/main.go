package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/jroosing/dnslens/internal/bitio"
	"github.com/jroosing/dnslens/internal/dnswire"
	"github.com/jroosing/dnslens/internal/inspect"
	"github.com/olekukonko/tablewriter"
)

func main() {
	var (
		file   = flag.String("file", "", "Read the raw message from a file instead of a hex argument")
		expect = flag.String("expect", "", "Assert a bit pattern before decoding, VALUE:WIDTH[@BIT] (e.g. 0:1@16 for QR=0)")
		asJSON = flag.Bool("json", false, "Print the decoded header as JSON")
	)
	flag.Parse()

	msg, err := readMessage(*file, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "hdrdump: %v\n", err)
		os.Exit(2)
	}

	if *expect != "" {
		if err := checkPattern(msg, *expect); err != nil {
			fmt.Fprintf(os.Stderr, "hdrdump: %v\n", err)
			os.Exit(1)
		}
	}

	h, off, err := dnswire.DecodeHeader(msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hdrdump: %v\n", err)
		var insuf *bitio.InsufficientInputError
		if errors.As(err, &insuf) {
			fmt.Fprintf(os.Stderr, "hdrdump: message is %d bytes, a full header needs %d\n",
				len(msg), dnswire.HeaderSize)
		}
		os.Exit(1)
	}

	if *asJSON {
		printJSON(h, off)
		return
	}
	printTable(h, off, len(msg))
}

// readMessage resolves the input source: -file wins, then a hex argument,
// then hex on stdin.
func readMessage(path string, args []string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	switch len(args) {
	case 0:
		in, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return decodeHex(string(in))
	case 1:
		return decodeHex(args[0])
	default:
		return nil, errors.New("usage: hdrdump [-file msg.bin] [-expect VALUE:WIDTH[@BIT]] [HEX]")
	}
}

// decodeHex tolerates whitespace, colon separators, and a 0x prefix, so
// output copied from tcpdump or a hex editor pastes in directly.
func decodeHex(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ':' {
			return -1
		}
		return r
	}, s)
	clean = strings.TrimPrefix(clean, "0x")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty input")
	}
	return b, nil
}

// checkPattern asserts the bits at the given offset match before the
// decode runs. A mismatch reports both values without advancing.
func checkPattern(msg []byte, spec string) error {
	pattern, width, at, err := parsePattern(spec)
	if err != nil {
		return err
	}
	cur, err := bitio.NewCursorAt(msg, at)
	if err != nil {
		return err
	}
	if _, err := cur.ExpectBits(pattern, width); err != nil {
		return err
	}
	return nil
}

// parsePattern splits VALUE:WIDTH[@BIT]. VALUE accepts decimal, 0x hex,
// or 0b binary.
func parsePattern(spec string) (uint16, int, int, error) {
	at := 0
	rest := spec
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		n, err := strconv.Atoi(rest[i+1:])
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("invalid bit offset in %q", spec)
		}
		at = n
		rest = rest[:i]
	}
	val, widthStr, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("pattern %q must be VALUE:WIDTH[@BIT]", spec)
	}
	v, err := strconv.ParseUint(val, 0, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid pattern value in %q", spec)
	}
	w, err := strconv.Atoi(widthStr)
	if err != nil || w < 1 || w > bitio.MaxExtract {
		return 0, 0, 0, fmt.Errorf("pattern width must be 1..%d", bitio.MaxExtract)
	}
	if w < 16 && v >= 1<<w {
		return 0, 0, 0, fmt.Errorf("pattern value %d does not fit in %d bits", v, w)
	}
	return uint16(v), w, at, nil
}

func printTable(h dnswire.Header, resumeOffset, msgLen int) {
	kind := "response"
	if h.IsQuery {
		kind = "query"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"id", fmt.Sprintf("0x%04x (%d)", h.ID, h.ID)},
		{"type", kind},
		{"opcode", h.Opcode.String()},
		{"authoritative", strconv.FormatBool(h.AuthoritativeAnswer)},
		{"truncated", strconv.FormatBool(h.Truncation)},
		{"recursion desired", strconv.FormatBool(h.RecursionDesired)},
		{"recursion available", strconv.FormatBool(h.RecursionAvailable)},
		{"response code", h.ResponseCode.String()},
		{"questions", strconv.Itoa(int(h.QuestionCount))},
		{"answers", strconv.Itoa(int(h.AnswerCount))},
		{"authority", strconv.Itoa(int(h.NameServerCount))},
		{"additional", strconv.Itoa(int(h.AdditionalCount))},
	})
	table.Render()
	fmt.Printf("header ok, %d of %d bytes consumed\n", resumeOffset, msgLen)
}

func printJSON(h dnswire.Header, resumeOffset int) {
	out := struct {
		inspect.HeaderView
		ResumeByteOffset int `json:"resume_byte_offset"`
	}{inspect.ViewOf(h), resumeOffset}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "hdrdump: %v\n", err)
		os.Exit(1)
	}
}
