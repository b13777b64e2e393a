package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "  abc  ")
	t.Setenv("TICKET_CLOSE_DELAY", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.Token != "abc" {
		t.Fatalf("token = %q, want trimmed", cfg.Discord.Token)
	}
	if cfg.Tickets.CategoryName != "TICKETS" {
		t.Fatalf("category = %q", cfg.Tickets.CategoryName)
	}
	if cfg.Tickets.CloseDelay != time.Second {
		t.Fatalf("close delay = %v", cfg.Tickets.CloseDelay)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "DISCORD_TOKEN=from-file\nSUPPORT_ROLE_ID=123456789012345678\nTICKET_CONFIRM_TTL=30s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv keeps variables that already exist, even empty ones.
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("SUPPORT_ROLE_ID", "")
	t.Setenv("TICKET_CONFIRM_TTL", "")
	os.Unsetenv("DISCORD_TOKEN")
	os.Unsetenv("SUPPORT_ROLE_ID")
	os.Unsetenv("TICKET_CONFIRM_TTL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.Token != "from-file" {
		t.Fatalf("token = %q", cfg.Discord.Token)
	}
	if cfg.Tickets.SupportRole != "123456789012345678" {
		t.Fatalf("support role = %q", cfg.Tickets.SupportRole)
	}
	if cfg.Tickets.ConfirmTTL != 30*time.Second {
		t.Fatalf("confirm ttl = %v", cfg.Tickets.ConfirmTTL)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing token", Config{Tickets: TicketsConfig{ConfirmCapacity: 1}}, true},
		{"ok", Config{Discord: DiscordConfig{Token: "t"}, Tickets: TicketsConfig{ConfirmCapacity: 1}}, false},
		{"bad log channel", Config{Discord: DiscordConfig{Token: "t"}, Tickets: TicketsConfig{LogChannel: "general", ConfirmCapacity: 1}}, true},
		{"bad capacity", Config{Discord: DiscordConfig{Token: "t"}}, true},
	}
	for _, tt := range cases {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}

	if err := (&Config{}).Validate(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Validate() = %v, want ErrMissingToken", err)
	}
}

func TestIsSnowflake(t *testing.T) {
	cases := map[string]bool{
		"":                     false,
		"123":                  true,
		"1172341234123412341":  true,
		"12a":                  false,
		"-1":                   false,
		"123456789012345678901": false,
	}
	for in, want := range cases {
		if got := IsSnowflake(in); got != want {
			t.Fatalf("IsSnowflake(%q) = %v, want %v", in, got, want)
		}
	}
}
