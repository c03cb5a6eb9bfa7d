package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
)

func TestDefault_Rules(t *testing.T) {
	table := Default()

	testCases := []struct {
		category domain.Category
		limit    int
	}{
		{domain.CategoryHighSensitivity, 1},
		{domain.CategoryLowSensitivity, 3},
		{domain.CategoryUnauthorizedApp, 5},
		{domain.CategoryRemovableStorage, 1},
	}

	for _, tc := range testCases {
		rule, ok := table.Rule(tc.category)
		if !ok {
			t.Fatalf("Rule(%s) not defined", tc.category)
		}
		if rule.Limit != tc.limit {
			t.Errorf("Rule(%s).Limit = %d, want %d", tc.category, rule.Limit, tc.limit)
		}
		if rule.Window != 24*time.Hour {
			t.Errorf("Rule(%s).Window = %v, want 24h", tc.category, rule.Window)
		}
	}
}

func TestDefault_UnknownCategory(t *testing.T) {
	table := Default()
	if _, ok := table.Rule(domain.Category("nonexistent")); ok {
		t.Error("Rule for unknown category should report ok=false")
	}
}

func TestDefault_DefaultCategory(t *testing.T) {
	table := Default()
	if got := table.DefaultCategory(); got != domain.CategoryLowSensitivity {
		t.Errorf("DefaultCategory = %s, want %s", got, domain.CategoryLowSensitivity)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rule, ok := table.Rule(domain.CategoryHighSensitivity)
	if !ok || rule.Limit != 1 {
		t.Errorf("high-sensitivity rule = %+v ok=%v, want default limit 1", rule, ok)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `categories:
  high-sensitivity:
    limit: 2
    window: 12h
  low-sensitivity:
    limit: 10
    window: 1h
default_category: low-sensitivity
allowed_apps:
  - Terminal
  - "Visual Studio Code"
keywords:
  high-sensitivity:
    payroll: 2.0
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rule, ok := table.Rule(domain.CategoryHighSensitivity)
	if !ok {
		t.Fatal("high-sensitivity rule missing")
	}
	if rule.Limit != 2 || rule.Window != 12*time.Hour {
		t.Errorf("rule = %+v, want limit 2 window 12h", rule)
	}

	// Categories section replaces defaults wholesale.
	if _, ok := table.Rule(domain.CategoryUnauthorizedApp); ok {
		t.Error("unauthorized-app should not be defined when the file omits it")
	}

	if !table.AllowedApp("terminal") {
		t.Error("AllowedApp should match case-insensitively")
	}
	if !table.AllowedApp("Visual Studio Code") {
		t.Error("AllowedApp should match multi-word names")
	}
	if table.AllowedApp("Solitaire") {
		t.Error("AllowedApp should reject unlisted apps")
	}

	kw := table.Keywords()
	if kw[domain.CategoryHighSensitivity]["payroll"] != 2.0 {
		t.Errorf("keyword weight = %v, want 2.0", kw[domain.CategoryHighSensitivity]["payroll"])
	}
}

func TestLoad_InvalidWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `categories:
  high-sensitivity:
    limit: 1
    window: eventually
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load should reject an unparseable window")
	}
}

func TestLoad_NonPositiveLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `categories:
  high-sensitivity:
    limit: 0
    window: 24h
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load should reject a zero limit")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/policy.yaml"); err == nil {
		t.Error("Load should fail for a missing file")
	}
}
