package main

import (
	"flag"
	"testing"

	"github.com/HerbHall/fortimap/internal/config"
	"github.com/HerbHall/fortimap/internal/fortigate"
)

func overlayFlags(t *testing.T, cfg *config.Config, args []string) {
	t.Helper()

	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	df := newDiscoverFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	applyConnectionFlags(fs, cfg, df)
}

func baseConfig() *config.Config {
	return &config.Config{
		Fortigate: fortigate.Config{
			Host:      "10.0.0.1",
			Port:      8443,
			APIToken:  "file-token",
			VerifySSL: true,
		},
	}
}

func TestApplyConnectionFlags_Overrides(t *testing.T) {
	cfg := baseConfig()
	overlayFlags(t, cfg, []string{
		"-host", "192.0.2.9",
		"-port", "443",
		"-token", "flag-token",
		"-username", "admin",
		"-password", "secret",
	})

	if cfg.Fortigate.Host != "192.0.2.9" {
		t.Errorf("Host = %q, want flag value", cfg.Fortigate.Host)
	}
	if cfg.Fortigate.Port != 443 {
		t.Errorf("Port = %d, want 443", cfg.Fortigate.Port)
	}
	if cfg.Fortigate.APIToken != "flag-token" {
		t.Errorf("APIToken = %q, want flag value", cfg.Fortigate.APIToken)
	}
	if cfg.Fortigate.Username != "admin" {
		t.Errorf("Username = %q, want admin", cfg.Fortigate.Username)
	}
	if cfg.Fortigate.Password != "secret" {
		t.Errorf("Password = %q, want secret", cfg.Fortigate.Password)
	}
}

func TestApplyConnectionFlags_UnsetFlagsKeepConfig(t *testing.T) {
	cfg := baseConfig()
	overlayFlags(t, cfg, nil)

	if cfg.Fortigate.Host != "10.0.0.1" {
		t.Errorf("Host = %q, want config value preserved", cfg.Fortigate.Host)
	}
	if cfg.Fortigate.Port != 8443 {
		t.Errorf("Port = %d, want config value preserved", cfg.Fortigate.Port)
	}
	if !cfg.Fortigate.VerifySSL {
		t.Error("VerifySSL should stay enabled when the flag is not passed")
	}
}

func TestApplyConnectionFlags_NoSSLVerify(t *testing.T) {
	cfg := baseConfig()
	overlayFlags(t, cfg, []string{"-no-ssl-verify"})
	if cfg.Fortigate.VerifySSL {
		t.Error("VerifySSL should be disabled by -no-ssl-verify")
	}

	// An explicit false re-enables verification even when the config
	// file had it off.
	cfg = baseConfig()
	cfg.Fortigate.VerifySSL = false
	overlayFlags(t, cfg, []string{"-no-ssl-verify=false"})
	if !cfg.Fortigate.VerifySSL {
		t.Error("VerifySSL should be enabled by -no-ssl-verify=false")
	}
}
