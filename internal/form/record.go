// record.go - Form records filled from captures and edited by the driver

package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordType selects which form a record backs
type RecordType string

const (
	TypeKmReport         RecordType = "km_report"
	TypeDeliveryDocument RecordType = "delivery_document"
)

// Status of a record
type Status string

const (
	StatusDraft      Status = "draft"
	StatusRegistered Status = "registered"
)

// Field names of the km report form
const (
	FieldVehicleNumber = "vehicleNumber"
	FieldKilometer     = "kilometer"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnknownType = errors.New("unknown record type")
)

// Submission is the last successful km report sent for a record
type Submission struct {
	VehicleNumber string    `bson:"vehicleNumber" json:"vehicleNumber"`
	Kilometer     string    `bson:"kilometer" json:"kilometer"`
	SentAt        time.Time `bson:"sentAt" json:"sentAt"`
}

// Record holds the current field values of one form
type Record struct {
	ID             string            `bson:"_id" json:"id"`
	Type           RecordType        `bson:"type" json:"type"`
	Fields         map[string]string `bson:"fields" json:"fields"`
	Status         Status            `bson:"status" json:"status"`
	LastSubmission *Submission       `bson:"lastSubmission,omitempty" json:"lastSubmission,omitempty"`
	Version        int64             `bson:"version" json:"version"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// ParseRecordType validates a wire record type
func ParseRecordType(s string) (RecordType, error) {
	switch t := RecordType(s); t {
	case TypeKmReport, TypeDeliveryDocument:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// NewRecord creates a draft record with every named field present and empty
func NewRecord(recordType RecordType, fieldNames []string) *Record {
	now := time.Now()
	fields := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		fields[name] = ""
	}
	return &Record{
		ID:        uuid.New().String(),
		Type:      recordType,
		Fields:    fields,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// KmReportFields are the fields of the km report form
func KmReportFields() []string {
	return []string{FieldVehicleNumber, FieldKilometer}
}

// Merge applies values onto the record. A key present in values overwrites the field,
// including with "" which clears it. Fields absent from values are left untouched.
// It returns the names of fields whose value changed.
func (r *Record) Merge(values map[string]string) []string {
	if r.Fields == nil {
		r.Fields = make(map[string]string, len(values))
	}

	var changed []string
	for k, v := range values {
		if old, ok := r.Fields[k]; ok && old == v {
			continue
		}
		r.Fields[k] = v
		changed = append(changed, k)
	}
	if len(changed) > 0 {
		r.UpdatedAt = time.Now()
	}
	return changed
}

// Reset clears every field back to "" and returns the record to draft
func (r *Record) Reset() {
	for k := range r.Fields {
		r.Fields[k] = ""
	}
	r.Status = StatusDraft
	r.UpdatedAt = time.Now()
}

// Clone returns a deep copy
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	if r.LastSubmission != nil {
		s := *r.LastSubmission
		c.LastSubmission = &s
	}
	return &c
}

// Repository stores records. Update must apply fn atomically with respect to other
// updates of the same record.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error)
}
