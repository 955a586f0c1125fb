package models

import (
	"encoding/json"
	"testing"
)

func TestSong(t *testing.T) {
	t.Run("DisplayName", func(t *testing.T) {
		s := Song{Title: "Around the World", Artist: "Daft Punk"}
		if got := s.DisplayName(); got != "Daft Punk - Around the World" {
			t.Errorf("unexpected display name %q", got)
		}
		if got := (Song{Title: "Untitled"}).DisplayName(); got != "Untitled" {
			t.Errorf("expected title only, got %q", got)
		}
	})

	t.Run("Extension", func(t *testing.T) {
		if got := (Song{}).Extension(); got != "mp3" {
			t.Errorf("expected mp3 default, got %q", got)
		}
		if got := (Song{Format: ".M4A"}).Extension(); got != "m4a" {
			t.Errorf("expected m4a, got %q", got)
		}
	})

	t.Run("DurationString", func(t *testing.T) {
		if got := (Song{Duration: 425}).DurationString(); got != "7:05" {
			t.Errorf("expected 7:05, got %q", got)
		}
		if got := (Song{}).DurationString(); got != "--:--" {
			t.Errorf("expected placeholder, got %q", got)
		}
	})

	t.Run("DownloadPath", func(t *testing.T) {
		if got := (Song{ID: "abc"}).DownloadPath(); got != "/api/songs/abc/download" {
			t.Errorf("unexpected path %q", got)
		}
	})
}

func TestQuotaResponse(t *testing.T) {
	tt := []struct {
		name      string
		body      string
		wantTotal QuotaTotal
		wantTier  Tier
		wantErr   bool
	}{
		{name: "numeric total", body: `{"remaining":9,"total":10,"tier":"free"}`, wantTotal: 10, wantTier: Free},
		{name: "unlimited string", body: `{"remaining":0,"total":"unlimited","tier":"premium"}`, wantTotal: Unlimited, wantTier: Premium},
		{name: "quoted number", body: `{"remaining":1,"total":"50","tier":"Premium"}`, wantTotal: 50, wantTier: Premium},
		{name: "null total", body: `{"remaining":4,"total":null,"tier":"free"}`, wantTotal: 0, wantTier: Free},
		{name: "unknown tier", body: `{"remaining":4,"total":5,"tier":"gold"}`, wantTotal: 5, wantTier: Free},
		{name: "garbage total", body: `{"remaining":4,"total":"lots","tier":"free"}`, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var resp QuotaResponse
			err := json.Unmarshal([]byte(tc.body), &resp)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if resp.Total != tc.wantTotal {
				t.Errorf("total = %d, want %d", resp.Total, tc.wantTotal)
			}
			if resp.Tier != tc.wantTier {
				t.Errorf("tier = %v, want %v", resp.Tier, tc.wantTier)
			}
		})
	}
}

func TestQuotaSnapshot(t *testing.T) {
	if !(QuotaSnapshot{Remaining: 0, Total: 10}).Exhausted() {
		t.Error("expected zero remaining to be exhausted")
	}
	if (QuotaSnapshot{Remaining: 0, Total: Unlimited}).Exhausted() {
		t.Error("unlimited quota is never exhausted")
	}
	if (QuotaSnapshot{Remaining: 3, Total: 10}).Exhausted() {
		t.Error("remaining quota is not exhausted")
	}
}
