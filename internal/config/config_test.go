package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port=%q, want 8080", cfg.Port)
	}
	if cfg.TicketPrefix != "MWQ" {
		t.Fatalf("prefix=%q, want MWQ", cfg.TicketPrefix)
	}
	if !reflect.DeepEqual(cfg.Preparers, []string{"Ingrid", "Kevin", "Ruben"}) {
		t.Fatalf("preparers=%v, want default roster", cfg.Preparers)
	}
	if cfg.WaitMinutesPerClient != 15 {
		t.Fatalf("wait minutes=%d, want 15", cfg.WaitMinutesPerClient)
	}
	if cfg.ForwardGuard != 2*time.Second {
		t.Fatalf("forward guard=%v, want 2s", cfg.ForwardGuard)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TICKET_PREFIX", "TAX")
	t.Setenv("PREPARERS", " Ana , Ben ,")
	t.Setenv("WAIT_MINUTES_PER_CLIENT", "10")
	t.Setenv("REFRESH_INTERVAL_SECONDS", "2")

	cfg := Load()
	if cfg.Port != "9090" || cfg.TicketPrefix != "TAX" {
		t.Fatalf("cfg=%+v, want overridden port and prefix", cfg)
	}
	if !reflect.DeepEqual(cfg.Preparers, []string{"Ana", "Ben"}) {
		t.Fatalf("preparers=%v, want trimmed two-name roster", cfg.Preparers)
	}
	if cfg.WaitMinutesPerClient != 10 {
		t.Fatalf("wait minutes=%d, want 10", cfg.WaitMinutesPerClient)
	}
	if cfg.RefreshInterval != 2*time.Second {
		t.Fatalf("refresh=%v, want 2s", cfg.RefreshInterval)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("WAIT_MINUTES_PER_CLIENT", "soon")
	t.Setenv("PREPARERS", " , ,")

	cfg := Load()
	if cfg.WaitMinutesPerClient != 15 {
		t.Fatalf("wait minutes=%d, want fallback 15", cfg.WaitMinutesPerClient)
	}
	if !reflect.DeepEqual(cfg.Preparers, []string{"Ingrid", "Kevin", "Ruben"}) {
		t.Fatalf("preparers=%v, want fallback roster", cfg.Preparers)
	}
}
