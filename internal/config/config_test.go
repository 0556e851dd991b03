package config

import "testing"

func validConfig() *Config {
	return &Config{
		AdminJIDs:           []string{"628111"},
		GroupJID:            "12036304@g.us",
		DBMaxConns:          25,
		DBMinConns:          5,
		BotMaxInflight:      64,
		HTTPPort:            8080,
		AccountCommandLimit: 25,
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty group", func(c *Config) { c.GroupJID = "" }},
		{"no admins", func(c *Config) { c.AdminJIDs = nil }},
		{"zero inflight", func(c *Config) { c.BotMaxInflight = 0 }},
		{"port out of range", func(c *Config) { c.HTTPPort = 70000 }},
		{"min conns above max", func(c *Config) { c.DBMinConns = 50 }},
		{"zero command limit", func(c *Config) { c.AccountCommandLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "postgres", DBPort: 5432,
		DBUser: "botuser", DBPassword: "pw",
		DBName: "nomercy_bot", DBSSLMode: "disable",
	}
	want := "postgres://botuser:pw@postgres:5432/nomercy_bot?sslmode=disable"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminJIDs: []string{"628111", "628222"}}
	if !cfg.IsAdmin("628111") {
		t.Error("628111 should be admin")
	}
	if cfg.IsAdmin("628999") {
		t.Error("628999 should not be admin")
	}
}

func TestParseCSV(t *testing.T) {
	got := parseCSV(" 628111, 628222 ,,628333")
	want := []string{"628111", "628222", "628333"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
