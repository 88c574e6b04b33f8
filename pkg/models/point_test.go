package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMeasurementPoint_Set(t *testing.T) {
	testCases := []struct {
		name        string
		field       PointField
		value       string
		expectError bool
		check       func(p MeasurementPoint) bool
	}{
		{
			name:  "Point name",
			field: FieldPointName,
			value: "Messpunkt 7",
			check: func(p MeasurementPoint) bool { return p.PointName == "Messpunkt 7" },
		},
		{
			name:  "Wall value",
			field: FieldWallValue,
			value: "12,5",
			check: func(p MeasurementPoint) bool { return p.WallValue == "12,5" },
		},
		{
			name:  "Floor value",
			field: FieldFloorValue,
			value: "88",
			check: func(p MeasurementPoint) bool { return p.FloorValue == "88" },
		},
		{
			name:  "Notes",
			field: FieldNotes,
			value: "hinter Schrank",
			check: func(p MeasurementPoint) bool { return p.Notes == "hinter Schrank" },
		},
		{
			name:        "Unknown field",
			field:       PointField("color"),
			value:       "red",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := MeasurementPoint{ID: uuid.New(), PointName: "Messpunkt 1"}
			err := p.Set(tc.field, tc.value)
			if tc.expectError {
				if !errors.Is(err, ErrUnknownField) {
					t.Fatalf("Expected ErrUnknownField, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tc.check(p) {
				t.Errorf("Field %s not set correctly: %+v", tc.field, p)
			}
		})
	}
}

func TestMeasurementPoint_SetLeavesOtherFields(t *testing.T) {
	p := MeasurementPoint{
		ID:         uuid.New(),
		PointName:  "Messpunkt 1",
		WallValue:  "10",
		FloorValue: "20",
		Notes:      "Ecke",
	}
	before := p

	if err := p.Set(FieldWallValue, "11"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if p.ID != before.ID || p.PointName != before.PointName || p.FloorValue != before.FloorValue || p.Notes != before.Notes {
		t.Errorf("Expected only wall value to change, got %+v", p)
	}
}

func TestParsePointField(t *testing.T) {
	for _, s := range []string{"point_name", "wall_value", "floor_value", "notes"} {
		if _, err := ParsePointField(s); err != nil {
			t.Errorf("Expected %s to be valid, got %v", s, err)
		}
	}

	_, err := ParsePointField("w_value")
	if err == nil {
		t.Fatal("Expected error for invalid field")
	}
	if !strings.Contains(err.Error(), "valid: point_name") {
		t.Errorf("Expected error to list valid fields, got %q", err.Error())
	}
}

func TestClonePoints(t *testing.T) {
	if ClonePoints(nil) != nil {
		t.Error("Expected nil clone for nil slice")
	}

	points := []MeasurementPoint{{ID: uuid.New(), PointName: "A"}}
	clone := ClonePoints(points)
	clone[0].PointName = "B"

	if points[0].PointName != "A" {
		t.Error("Expected clone to be independent of the source slice")
	}
}

func TestSessionTime(t *testing.T) {
	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	s := MeasurementSession{Metadata: SessionMetadata{Date: "2026-02-01"}, CreatedAt: created}
	if got := s.SessionTime(); !got.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected parsed session date, got %v", got)
	}

	s.Metadata.Date = "01.02.2026"
	if got := s.SessionTime(); !got.Equal(created) {
		t.Errorf("Expected fallback to CreatedAt, got %v", got)
	}
}

func TestRoom_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		room        Room
		expectError bool
		errorMsg    string
	}{
		{
			name: "Valid room",
			room: Room{Name: "Küche", ProjectTitle: "Wasserschaden Muster"},
		},
		{
			name:        "Empty name",
			room:        Room{Name: "   "},
			expectError: true,
			errorMsg:    "room name must not be empty",
		},
		{
			name:        "Name too long",
			room:        Room{Name: strings.Repeat("x", 256)},
			expectError: true,
			errorMsg:    "room name must be at most 255 characters",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.room.Validate()
			if tc.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tc.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tc.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestSessionMetadataSet(t *testing.T) {
	var m SessionMetadata

	if err := m.Set(FieldDate, "2026-10-18"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := m.Set(FieldDeviceName, "Gann Hydromette"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Date != "2026-10-18" || m.DeviceName != "Gann Hydromette" {
		t.Errorf("Unexpected metadata %+v", m)
	}

	if err := m.Set(FieldDate, "18.10.2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
	if m.Date != "2026-10-18" {
		t.Errorf("Invalid date must not be stored, got %q", m.Date)
	}

	if err := m.Set(FieldDate, ""); err != nil {
		t.Errorf("Empty date must be accepted, got %v", err)
	}

	if _, err := ParseMetadataField("pressure"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}
