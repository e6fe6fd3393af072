package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/google/go-cmp/cmp"
)

func decodeRecords(t *testing.T, body string) []model.RawRecord {
	t.Helper()
	var records []model.RawRecord
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return records
}

func TestNormalizeWorkedExample(t *testing.T) {
	records := decodeRecords(t, `[{
		"Step_ID": 0,
		"DelCode_w_o__": "D1",
		"Short_description": "Parts",
		"Client": "Acme",
		"Planned_Tasks": 3,
		"Total_Tasks": 10,
		"Planned_Start_Timestamp": "2024-01-01T00:00:00Z",
		"Planned_Delivery_Timestamp": "2024-01-03T12:00:00Z"
	}]`)

	got := NewNormalizer(utcFormatter()).Normalize(context.Background(), []model.Group{{Key: "g", Records: records}})

	want := []model.Delivery{{
		DelCode:      "D1",
		Client:       "Parts for Acme",
		Initiated:    "1/1/2024, 12:00:00 AM",
		Deadline:     "2 days 12 hrs left",
		TasksPlanned: 3,
		TasksTotal:   10,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	if p := got[0].Progress(); p != 30 {
		t.Errorf("progress = %v, want 30", p)
	}
	if tier := model.TierFor(got[0].Progress()); tier != model.TierMedium {
		t.Errorf("tier = %s, want warning", tier)
	}
}

func TestNormalizeKeepsOnlyTopLevel(t *testing.T) {
	records := decodeRecords(t, `[
		{"Step_ID": 0, "DelCode_w_o__": "A"},
		{"Step_ID": 1, "DelCode_w_o__": "B"},
		{"Step_ID": "0", "DelCode_w_o__": "C"},
		{"Step_ID": null, "DelCode_w_o__": "D"},
		{"DelCode_w_o__": "E"},
		{"Step_ID": 0.0, "DelCode_w_o__": "F"},
		{"Step_ID": false, "DelCode_w_o__": "G"}
	]`)

	got := NewNormalizer(utcFormatter()).Normalize(context.Background(), []model.Group{
		{Key: "g1", Records: records[:3]},
		{Key: "g2", Records: records[3:]},
	})

	var codes []string
	for _, d := range got {
		codes = append(codes, d.DelCode)
	}
	if diff := cmp.Diff([]string{"A", "F"}, codes); diff != "" {
		t.Errorf("delCodes mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCoercions(t *testing.T) {
	records := decodeRecords(t, `[
		{"Step_ID": 0, "Client": null, "Planned_Tasks": null, "Total_Tasks": "12"},
		{"Step_ID": 0, "DelCode_w_o__": 42, "Short_description": ["a", "b"], "Client": {"x": 1}, "Planned_Tasks": "", "Total_Tasks": 0}
	]`)

	got := NewNormalizer(utcFormatter()).Normalize(context.Background(), []model.Group{{Records: records}})

	want := []model.Delivery{
		{
			DelCode:    "undefined",
			Client:     "undefined for null",
			Initiated:  NoStartTime,
			Deadline:   NoDeadline,
			TasksTotal: 12,
		},
		{
			DelCode:   "42",
			Client:    "a,b for [object Object]",
			Initiated: NoStartTime,
			Deadline:  NoDeadline,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	if p := got[1].Progress(); p != 0 {
		t.Errorf("progress com total zero = %v, want 0", p)
	}
}

func TestNormalizeKeepsDuplicatesAndOrder(t *testing.T) {
	records := decodeRecords(t, `[
		{"Step_ID": 0, "DelCode_w_o__": "X", "Client": "first"},
		{"Step_ID": 0, "DelCode_w_o__": "Y"},
		{"Step_ID": 0, "DelCode_w_o__": "X", "Client": "second"}
	]`)

	got := NewNormalizer(nil).Normalize(context.Background(), []model.Group{{Records: records}})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Client != "undefined for first" || got[2].Client != "undefined for second" {
		t.Errorf("ordem não preservada: %+v", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	got := NewNormalizer(nil).Normalize(context.Background(), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("esperada lista vazia não nula, got %#v", got)
	}
}
