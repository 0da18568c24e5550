package domain

import (
	"fmt"
	"strings"
	"time"
)

type ScanMethod string

const (
	ScanNFC    ScanMethod = "NFC"
	ScanQR     ScanMethod = "QR"
	ScanManual ScanMethod = "Manual"
)

// ScanMethods lists every accepted method in display order.
var ScanMethods = []ScanMethod{ScanNFC, ScanQR, ScanManual}

func (m ScanMethod) Valid() bool {
	switch m {
	case ScanNFC, ScanQR, ScanManual:
		return true
	default:
		return false
	}
}

// ParseScanMethod is case-insensitive but always returns the canonical
// spelling.
func ParseScanMethod(s string) (ScanMethod, error) {
	for _, m := range ScanMethods {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("domain: unknown scan method %q", s)
}

type Location struct {
	Latitude  float64
	Longitude float64
}

type AttendanceRecord struct {
	ID         string
	EventID    string
	UserID     string
	MarkedAt   time.Time
	MarkedBy   string
	ScanMethod ScanMethod
	Location   *Location
	Notes      *string
	IsMember   bool
	UpdatedAt  time.Time
}

type AttendanceSummary struct {
	Total             int
	ByMethod          map[ScanMethod]int
	Members           int
	Guests            int
	OrganizationSize  int
	AttendancePercent float64
}

// Summarize counts records by method and membership. The percentage is
// members present over orgSize, and 0 when the organization is empty.
func Summarize(records []AttendanceRecord, orgSize int) AttendanceSummary {
	s := AttendanceSummary{
		Total:            len(records),
		ByMethod:         make(map[ScanMethod]int, len(ScanMethods)),
		OrganizationSize: orgSize,
	}
	for _, m := range ScanMethods {
		s.ByMethod[m] = 0
	}

	for _, r := range records {
		s.ByMethod[r.ScanMethod]++
		if r.IsMember {
			s.Members++
		} else {
			s.Guests++
		}
	}

	if orgSize > 0 {
		s.AttendancePercent = float64(s.Members) / float64(orgSize) * 100
	}
	return s
}
