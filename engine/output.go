// Package engine invokes the external computation engine under benchmark and
// reads the single duration it reports.
package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

var (
	// ErrInvocation is returned when the engine cannot be started or exits
	// with a non-zero status.
	ErrInvocation = errors.New("engine invocation failed")

	// ErrParse is returned when the engine output is not exactly one
	// non-negative duration.
	ErrParse = errors.New("engine output is not a single duration")

	// ErrTimeout is returned when an invocation exceeds Runner.Timeout.
	ErrTimeout = errors.New("engine invocation timed out")
)

// OutputFormat selects how the engine reports its measured duration.
type OutputFormat string

const (
	// FormatPlain expects the whole output to be one float, in seconds.
	FormatPlain OutputFormat = "plain"
	// FormatJSON expects a single object of the form {"seconds": 1.25}.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat maps a config or flag value to an OutputFormat. The empty
// string selects FormatPlain.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown engine output format %q", s)
	}
}

// jsonOutput is the structured alternative to the plain-number contract.
type jsonOutput struct {
	Seconds *float64 `json:"seconds"`
}

func parseDuration(format OutputFormat, out []byte) (float64, error) {
	var (
		seconds float64
		err     error
	)

	switch format {
	case FormatJSON:
		seconds, err = parseJSON(out)
	default:
		seconds, err = parsePlain(out)
	}

	if err != nil {
		return 0, err
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("%w: %v is not a valid duration", ErrParse, seconds)
	}

	return seconds, nil
}

func parsePlain(out []byte) (float64, error) {
	text := string(bytes.TrimSpace(out))
	if text == "" {
		return 0, fmt.Errorf("%w: empty output", ErrParse)
	}

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrParse, text)
	}

	return seconds, nil
}

func parseJSON(out []byte) (float64, error) {
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.DisallowUnknownFields()

	var o jsonOutput
	if err := dec.Decode(&o); err != nil {
		return 0, fmt.Errorf("%w: decode JSON: %w", ErrParse, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: trailing data after JSON object", ErrParse)
	}

	if o.Seconds == nil {
		return 0, fmt.Errorf("%w: missing \"seconds\" field", ErrParse)
	}

	return *o.Seconds, nil
}
