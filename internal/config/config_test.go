package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Audit.ApprovedMaxVariancePct != 5.0 {
		t.Errorf("ApprovedMaxVariancePct = %v; want 5.0", cfg.Audit.ApprovedMaxVariancePct)
	}
	if cfg.Audit.ReviewMaxVariancePct != 15.0 {
		t.Errorf("ReviewMaxVariancePct = %v; want 15.0", cfg.Audit.ReviewMaxVariancePct)
	}
	if cfg.Audit.DGFFreightTolerancePct != 5.0 {
		t.Errorf("DGFFreightTolerancePct = %v; want 5.0", cfg.Audit.DGFFreightTolerancePct)
	}
	if cfg.Audit.DGFHandlingTolerancePct != 10.0 {
		t.Errorf("DGFHandlingTolerancePct = %v; want 10.0", cfg.Audit.DGFHandlingTolerancePct)
	}
	if cfg.Audit.PersistBatchSize != 50 {
		t.Errorf("PersistBatchSize = %v; want 50", cfg.Audit.PersistBatchSize)
	}
	if cfg.Audit.InvoiceTimeoutSeconds != 30 {
		t.Errorf("InvoiceTimeoutSeconds = %v; want 30", cfg.Audit.InvoiceTimeoutSeconds)
	}
	if cfg.Audit.MaxConcurrentInvoiceAudits != 8 {
		t.Errorf("MaxConcurrentInvoiceAudits = %v; want 8", cfg.Audit.MaxConcurrentInvoiceAudits)
	}
	if cfg.Cache.LookupEntries != 2048 {
		t.Errorf("LookupEntries = %v; want 2048", cfg.Cache.LookupEntries)
	}
	if cfg.Cache.CacheTTLMinutes != 15 {
		t.Errorf("CacheTTLMinutes = %v; want 15", cfg.Cache.CacheTTLMinutes)
	}
	if cfg.Cache.VersionPointerKey != "ratecards:active_version" {
		t.Errorf("VersionPointerKey = %q; want ratecards:active_version", cfg.Cache.VersionPointerKey)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{Audit: AuditConfig{ApprovedMaxVariancePct: 2.5, PersistBatchSize: 10}}
	applyDefaults(cfg)

	if cfg.Audit.ApprovedMaxVariancePct != 2.5 {
		t.Errorf("ApprovedMaxVariancePct = %v; want the explicit 2.5 preserved", cfg.Audit.ApprovedMaxVariancePct)
	}
	if cfg.Audit.PersistBatchSize != 10 {
		t.Errorf("PersistBatchSize = %v; want the explicit 10 preserved", cfg.Audit.PersistBatchSize)
	}
	// Untouched fields still pick up their defaults.
	if cfg.Audit.ReviewMaxVariancePct != 15.0 {
		t.Errorf("ReviewMaxVariancePct = %v; want the 15.0 default", cfg.Audit.ReviewMaxVariancePct)
	}
}

func TestLoadReadsYAMLAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "audit:\n  approved_max_variance_pct: 3\ncache:\n  lookup_entries: 512\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Audit.ApprovedMaxVariancePct != 3 {
		t.Errorf("ApprovedMaxVariancePct = %v; want 3 from the file", cfg.Audit.ApprovedMaxVariancePct)
	}
	if cfg.Cache.LookupEntries != 512 {
		t.Errorf("LookupEntries = %v; want 512 from the file", cfg.Cache.LookupEntries)
	}
	if cfg.Audit.ReviewMaxVariancePct != 15.0 {
		t.Errorf("ReviewMaxVariancePct = %v; want the 15.0 default applied on top", cfg.Audit.ReviewMaxVariancePct)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Error("Load() error = nil; want an error for a missing config file")
	}
}
