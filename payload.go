package coodecraft

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSeats    = 30
	defaultDuration = "4 weeks"
)

// looseNumber accepts a JSON number or a numeric string. Anything else
// (including null) is recorded as absent so the validator can fall back to
// its default instead of failing the whole payload.
type looseNumber struct {
	value float64
	valid bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		n.value, n.valid = f, true
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	n.value, n.valid = f, true
	return nil
}

func (n looseNumber) intOr(fallback int) int {
	if !n.valid {
		return fallback
	}
	return int(n.value)
}

// looseBool accepts a JSON bool or the strings "true"/"false".
type looseBool struct {
	value bool
	valid bool
}

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		b.value, b.valid = v, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			b.value, b.valid = parsed, true
		}
	}
	return nil
}

// looseTime accepts RFC 3339 text, a bare date, or epoch milliseconds.
// Unparseable input is recorded as absent; whether that is fatal depends on
// the field, so the decision is left to the validator.
type looseTime struct {
	value time.Time
	valid bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *looseTime) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.value, t.valid = parsed, true
				return nil
			}
		}
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return nil
	}
	t.value, t.valid = time.UnixMilli(int64(ms)).UTC(), true
	return nil
}

// looseStrings normalizes its input to a list of text values. Non-list input
// (text, null, numbers, objects) becomes an empty list; list elements that
// are not text are stringified.
type looseStrings struct {
	items []string
}

func (l *looseStrings) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}

	items := make([]string, 0, len(raws))
	for _, raw := range raws {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			items = append(items, s)
			continue
		}
		items = append(items, string(raw))
	}
	l.items = items
	return nil
}

// batchList records whether the batches field was supplied and whether it
// was actually a list. Unlike features, a batches field of the wrong shape
// is a validation error rather than silently normalized.
type batchList struct {
	present bool
	isList  bool
	items   []json.RawMessage
}

func (b *batchList) UnmarshalJSON(data []byte) error {
	b.present = true
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}
	b.isList = true
	b.items = raws
	return nil
}

// BatchPayload is the raw shape of one batch in an admin request.
type BatchPayload struct {
	StartDate        looseTime   `json:"startDate"`
	EndDate          looseTime   `json:"endDate"`
	Seats            looseNumber `json:"seats"`
	EnrolledStudents looseNumber `json:"enrolledStudents"`
	Status           string      `json:"status"`
	BatchCode        string      `json:"batchCode"`
}

// Validate normalizes the payload into a well-formed Batch. It fails only
// when a date is missing or unparseable; every other field falls back to a
// default. Status values outside the known set fall back to upcoming rather
// than being stored verbatim.
func (p BatchPayload) Validate(courseTitle string, now time.Time) (Batch, error) {
	if !p.StartDate.valid {
		return Batch{}, NewValidationError("batch startDate is missing or unparseable")
	}
	if !p.EndDate.valid {
		return Batch{}, NewValidationError("batch endDate is missing or unparseable")
	}

	status := p.Status
	switch status {
	case BatchUpcoming, BatchOngoing, BatchCompleted, BatchCancelled:
	default:
		status = BatchUpcoming
	}

	code := p.BatchCode
	if code == "" {
		code = GenerateBatchCode(courseTitle, now)
	}

	return Batch{
		StartDate:        p.StartDate.value,
		EndDate:          p.EndDate.value,
		Seats:            p.Seats.intOr(defaultSeats),
		EnrolledStudents: p.EnrolledStudents.intOr(0),
		Status:           status,
		BatchCode:        code,
	}, nil
}

// CoursePayload is the raw shape of one course in an admin request. An
// empty ID marks a course to insert; a non-empty ID targets an existing
// record. Identifier handling belongs to the reconciler, not the validator.
type CoursePayload struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       looseNumber  `json:"price"`
	Image       string       `json:"image"`
	ImageID     string       `json:"imageId"`
	Duration    string       `json:"duration"`
	Level       string       `json:"level"`
	Features    looseStrings `json:"features"`
	IsActive    looseBool    `json:"isActive"`
	Batches     batchList    `json:"batches"`
}

// Validate normalizes the payload into a Course ready for persistence.
// The result never carries an identifier or timestamps. List-valued fields
// are always present in the result, never nil.
func (p CoursePayload) Validate(now time.Time) (Course, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return Course{}, NewValidationError("course title is required")
	}

	price := float64(0)
	if p.Price.valid {
		price = p.Price.value
	}
	if price < 0 {
		return Course{}, NewValidationError("course price cannot be negative")
	}

	duration := p.Duration
	if duration == "" {
		duration = defaultDuration
	}

	level := p.Level
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		level = LevelBeginner
	}

	features := p.Features.items
	if features == nil {
		features = []string{}
	}

	isActive := true
	if p.IsActive.valid {
		isActive = p.IsActive.value
	}

	if p.Batches.present && !p.Batches.isList {
		return Course{}, NewValidationError("course batches must be a list")
	}

	batches := make([]Batch, 0, len(p.Batches.items))
	for i, raw := range p.Batches.items {
		var bp BatchPayload
		if err := json.Unmarshal(raw, &bp); err != nil {
			return Course{}, NewValidationError("batch %d is not an object", i)
		}
		batch, err := bp.Validate(title, now)
		if err != nil {
			return Course{}, NewValidationError("batch %d: %s", i, err)
		}
		batches = append(batches, batch)
	}

	return Course{
		Title:       title,
		Description: p.Description,
		Price:       price,
		Image:       p.Image,
		ImageID:     p.ImageID,
		Duration:    duration,
		Level:       level,
		Features:    features,
		IsActive:    isActive,
		Batches:     batches,
	}, nil
}
