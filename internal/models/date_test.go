package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSON(t *testing.T) {
	var entry struct {
		MealDate Date `json:"meal_date"`
	}
	if err := json.Unmarshal([]byte(`{"meal_date":"2024-03-05"}`), &entry); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if entry.MealDate.Year() != 2024 || entry.MealDate.Month() != time.March || entry.MealDate.Day() != 5 {
		t.Errorf("unexpected date: %v", entry.MealDate)
	}

	out, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != `{"meal_date":"2024-03-05"}` {
		t.Errorf("Marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"meal_date":"05/03/2024"}`), &entry); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want string
	}{
		{"text", "2024-01-31", "2024-01-31"},
		{"bytes", []byte("2024-02-29"), "2024-02-29"},
		{"datetime text", "2024-01-31 00:00:00", "2024-01-31"},
		{"time", time.Date(2023, 12, 25, 15, 4, 5, 0, time.FixedZone("X", 3600)), "2023-12-25"},
		{"null", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("Scan(%v) failed: %v", tt.src, err)
			}
			if d.String() != tt.want {
				t.Errorf("Scan(%v) = %q, want %q", tt.src, d.String(), tt.want)
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
