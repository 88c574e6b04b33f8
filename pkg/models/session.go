package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the layout of SessionMetadata.Date
const DateLayout = "2006-01-02"

// SessionMetadata holds the session-level fields of a measurement pass.
// All fields are optional.
type SessionMetadata struct {
	Date        string `json:"date"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	DeviceName  string `json:"device_name"`
}

// ParsedDate parses the session date
func (m SessionMetadata) ParsedDate() (time.Time, error) {
	if m.Date == "" {
		return time.Time{}, fmt.Errorf("session date is empty")
	}
	t, err := time.Parse(DateLayout, m.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session date %q: %w", m.Date, err)
	}
	return t, nil
}

// Today returns the date string for t in DateLayout
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// ArtifactRef points at an exported file in the artifact store
type ArtifactRef struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Digest      string `json:"digest"`
	Size        int64  `json:"size"`
}

// MeasurementSession is one saved round of sketch and measurement data for a
// room. Sessions are never modified after they have been stored.
type MeasurementSession struct {
	ID        uuid.UUID          `json:"id"`
	RoomID    uuid.UUID          `json:"room_id"`
	Metadata  SessionMetadata    `json:"metadata"`
	Points    []MeasurementPoint `json:"points"`
	SketchPNG []byte             `json:"sketch_png,omitempty"`
	Artifact  ArtifactRef        `json:"artifact"`
	CreatedAt time.Time          `json:"created_at"`
}

// SessionTime returns the point in time used to order sessions: the session
// date when it parses, otherwise the creation time.
func (s MeasurementSession) SessionTime() time.Time {
	if t, err := s.Metadata.ParsedDate(); err == nil {
		return t
	}
	return s.CreatedAt
}

// FindPointByName returns the first point with the given name
func (s MeasurementSession) FindPointByName(name string) (MeasurementPoint, bool) {
	for _, p := range s.Points {
		if p.PointName == name {
			return p, true
		}
	}
	return MeasurementPoint{}, false
}

// FindPointByID returns the first point with the given id
func (s MeasurementSession) FindPointByID(id uuid.UUID) (MeasurementPoint, bool) {
	for _, p := range s.Points {
		if p.ID == id {
			return p, true
		}
	}
	return MeasurementPoint{}, false
}

// ErrInvalidDate is returned when a session date is not in DateLayout
var ErrInvalidDate = errors.New("invalid session date")

// MetadataField names one editable session-level field
type MetadataField string

const (
	FieldDate        MetadataField = "date"
	FieldTemperature MetadataField = "temperature"
	FieldHumidity    MetadataField = "humidity"
	FieldDeviceName  MetadataField = "device_name"
)

// ParseMetadataField converts a string to a MetadataField
func ParseMetadataField(s string) (MetadataField, error) {
	switch f := MetadataField(s); f {
	case FieldDate, FieldTemperature, FieldHumidity, FieldDeviceName:
		return f, nil
	}
	return "", fmt.Errorf("%w: %s (valid: date, temperature, humidity, device_name)", ErrUnknownField, s)
}

// Set replaces one metadata field. A non-empty date must be in DateLayout.
func (m *SessionMetadata) Set(field MetadataField, value string) error {
	switch field {
	case FieldDate:
		if value != "" {
			if _, err := time.Parse(DateLayout, value); err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidDate, value)
			}
		}
		m.Date = value
	case FieldTemperature:
		m.Temperature = value
	case FieldHumidity:
		m.Humidity = value
	case FieldDeviceName:
		m.DeviceName = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}
