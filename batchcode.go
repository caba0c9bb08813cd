package coodecraft

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateBatchCode builds a human-readable offering code from the course
// title and the calendar month after ref, which is the intended next
// enrollment window. Example: ("Python Basics", March 2025) -> "PYT-202504".
// The three-character title prefix is uppercased but otherwise untouched, so
// "C++ Programming" yields "C++-202504". With no title to work from, a
// random token is returned instead and carries no date suffix.
func GenerateBatchCode(title string, ref time.Time) string {
	if title == "" {
		return randomBatchCode()
	}

	prefix := title
	if runes := []rune(title); len(runes) > 3 {
		prefix = string(runes[:3])
	}

	next := time.Date(ref.Year(), ref.Month()+1, 1, 0, 0, 0, 0, ref.Location())
	return fmt.Sprintf("%s-%d%02d", strings.ToUpper(prefix), next.Year(), int(next.Month()))
}

func randomBatchCode() string {
	var sb strings.Builder
	n := 5 + rand.Intn(2)
	for i := 0; i < n; i++ {
		sb.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return sb.String()
}

// NewDefaultBatch synthesizes the first batch for a course created without
// one. Enrollment opens on the first day of next month and the batch runs
// through the last day of the third month after, mirroring the backfill the
// catalog has always used.
func NewDefaultBatch(title string, now time.Time) Batch {
	start := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month()+4, 0, 0, 0, 0, 0, time.UTC)

	return Batch{
		StartDate:        start,
		EndDate:          end,
		Seats:            defaultSeats,
		EnrolledStudents: 0,
		Status:           BatchUpcoming,
		BatchCode:        GenerateBatchCode(title, now),
	}
}
