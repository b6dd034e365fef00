package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Human-readable identifier formats. The numeric part comes from a
// database sequence, so concurrent creations can never collide.
const (
	patientCodePrefix  = "P"
	orderNumberPrefix  = "ORD"
	sampleBarcodePrefix = "SMP"
)

// FormatPatientCode renders a sequence value as P0001.
func FormatPatientCode(n int64) string {
	return fmt.Sprintf("%s%04d", patientCodePrefix, n)
}

// FormatOrderNumber renders a sequence value as ORD000001.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("%s%06d", orderNumberPrefix, n)
}

// FormatSampleBarcode renders a sequence value as SMP000001.
func FormatSampleBarcode(n int64) string {
	return fmt.Sprintf("%s%06d", sampleBarcodePrefix, n)
}

// ParsePatientCode extracts the numeric part of a patient code. A
// malformed code is a data corruption and surfaces as an error.
func ParsePatientCode(code string) (int64, error) {
	return parseCode(code, patientCodePrefix)
}

// ParseOrderNumber extracts the numeric part of an order number.
func ParseOrderNumber(number string) (int64, error) {
	return parseCode(number, orderNumberPrefix)
}

func parseCode(code, prefix string) (int64, error) {
	if !strings.HasPrefix(code, prefix) {
		return 0, fmt.Errorf("malformed code %q: missing %q prefix", code, prefix)
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(code, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed code %q: %w", code, err)
	}
	return n, nil
}
