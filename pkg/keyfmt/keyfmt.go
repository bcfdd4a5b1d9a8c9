// Package keyfmt parses and prints account keys for the command line.
package keyfmt

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"k8s.io/klog/v2"
)

var (
	ErrInvalidKey    = errors.New("invalid account key")
	ErrInvalidFormat = errors.New("invalid output format")
)

// ParseKey accepts a base58 key or 64 hex digits with optional 0x prefix.
func ParseKey(s string) (solana.PublicKey, error) {
	var out solana.PublicKey
	s = strings.TrimSpace(s)
	if s == "" {
		return out, ErrInvalidKey
	}
	if h := strings.TrimPrefix(s, "0x"); len(h) == 2*len(out) {
		if b, err := hex.DecodeString(h); err == nil {
			copy(out[:], b)
			return out, nil
		}
	}
	b, err := base58.Decode(s)
	if err != nil || len(b) != len(out) {
		return out, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	copy(out[:], b)
	return out, nil
}

type Format string

const (
	FormatJSON  Format = "json"
	FormatLines Format = "lines"
	FormatHex   Format = "hex"
)

var Formats = []Format{FormatJSON, FormatLines, FormatHex}

func (f Format) String() string { return string(f) }

func (f *Format) Set(s string) error {
	for _, known := range Formats {
		if strings.EqualFold(s, string(known)) {
			*f = known
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %v)", ErrInvalidFormat, s, Formats)
}

func (f *Format) Type() string { return "format" }

// Encode renders a single key.
func (f Format) Encode(k solana.PublicKey) string {
	if f == FormatHex {
		return hex.EncodeToString(k[:])
	}
	return base58.Encode(k[:])
}

// WriteKeys prints keys in format f: a JSON array, or one key per line.
func WriteKeys(w io.Writer, f Format, keys []solana.PublicKey) error {
	switch f {
	case FormatJSON:
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = f.Encode(k)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case FormatLines, FormatHex:
		for _, k := range keys {
			if _, err := fmt.Fprintln(w, f.Encode(k)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, string(f))
	}
}

// WriteJSON pretty-prints v as JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// OpenOutput opens path for writing, or returns stdout for "" and "-".
// The returned func closes the file and logs close errors.
func OpenOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			klog.Errorf("Failed to close %s: %s", path, err)
		}
	}, nil
}
