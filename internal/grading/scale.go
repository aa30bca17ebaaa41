// Package grading holds the pure arithmetic behind report cards: scale
// evaluation, mark aggregation and class ranking. Nothing here touches I/O.
package grading

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Range maps an inclusive percentage band to a grade and remark.
type Range struct {
	Grade      string
	MinPercent float64
	MaxPercent float64
	Remark     string
}

// Result is the outcome of evaluating a percentage.
type Result struct {
	Grade  string `json:"grade"`
	Remark string `json:"remark"`
}

// ParsedScale is either a valid ordered list of ranges or invalid storage.
// The zero value is invalid.
type ParsedScale struct {
	ranges []Range
	valid  bool
}

// Valid wraps ranges in stored order.
func Valid(ranges []Range) ParsedScale {
	if len(ranges) == 0 {
		return ParsedScale{}
	}
	cp := make([]Range, len(ranges))
	copy(cp, ranges)
	return ParsedScale{ranges: cp, valid: true}
}

// Invalid marks a scale that could not be read.
func Invalid() ParsedScale {
	return ParsedScale{}
}

// IsValid reports whether the scale carries usable ranges.
func (s ParsedScale) IsValid() bool {
	return s.valid
}

// Ranges returns the ranges in stored order.
func (s ParsedScale) Ranges() []Range {
	return s.ranges
}

type storedRange struct {
	Grade      json.RawMessage `json:"grade"`
	MinPercent json.RawMessage `json:"minPercent"`
	MaxPercent json.RawMessage `json:"maxPercent"`
	Remark     json.RawMessage `json:"remark"`
}

// ParseScale reads the loosely typed ranges column of a grading scale.
func ParseScale(raw string) ParsedScale {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed[0] != '[' {
		return Invalid()
	}

	var stored []storedRange
	if err := json.Unmarshal([]byte(trimmed), &stored); err != nil {
		return Invalid()
	}

	ranges := make([]Range, 0, len(stored))
	for _, item := range stored {
		minPercent, ok := looseFloat(item.MinPercent)
		if !ok {
			return Invalid()
		}
		maxPercent, ok := looseFloat(item.MaxPercent)
		if !ok {
			return Invalid()
		}
		ranges = append(ranges, Range{
			Grade:      looseString(item.Grade),
			MinPercent: minPercent,
			MaxPercent: maxPercent,
			Remark:     looseString(item.Remark),
		})
	}
	return Valid(ranges)
}

// looseString accepts a JSON string or number, anything else becomes empty.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	}
	return ""
}

// looseFloat accepts a JSON number or a numeric string.
func looseFloat(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		f, err := n.Float64()
		return f, err == nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// Evaluate maps a percentage onto the scale. The first range whose bounds
// contain the percentage wins; with no match the last range is returned.
// An invalid scale uses FallbackGrade.
func Evaluate(percentage float64, scale ParsedScale) Result {
	if !scale.IsValid() {
		return FallbackGrade(percentage)
	}
	for _, r := range scale.ranges {
		if r.MinPercent <= percentage && percentage <= r.MaxPercent {
			return Result{Grade: r.Grade, Remark: r.Remark}
		}
	}
	last := scale.ranges[len(scale.ranges)-1]
	return Result{Grade: last.Grade, Remark: last.Remark}
}

// FallbackGrade is the fixed nine point ladder used when a school has no usable scale.
func FallbackGrade(percentage float64) Result {
	switch {
	case percentage >= 80:
		return Result{Grade: "1", Remark: "Excellent"}
	case percentage >= 70:
		return Result{Grade: "2", Remark: "Very Good"}
	case percentage >= 65:
		return Result{Grade: "3", Remark: "Good"}
	case percentage >= 60:
		return Result{Grade: "4", Remark: "High Average"}
	case percentage >= 55:
		return Result{Grade: "5", Remark: "Average"}
	case percentage >= 50:
		return Result{Grade: "6", Remark: "Low Average"}
	case percentage >= 45:
		return Result{Grade: "7", Remark: "Pass"}
	case percentage >= 40:
		return Result{Grade: "8", Remark: "Pass"}
	default:
		return Result{Grade: "9", Remark: "Fail"}
	}
}
