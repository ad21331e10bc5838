package launch

import (
	"strings"
	"testing"
)

const sampleProfile = `
schema: streamforge.launch_profile.v1
classpath_entries:
  - /etc/streamforge/conf
  - /opt/streamforge/lib/*
memory_budget_mb: 4000
token_storage_paths:
  - staging/.streamforge
base_environment:
  TZ: UTC
`

func TestParseProfile(t *testing.T) {
	profile, err := ParseProfile([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("ParseProfile() err=%v", err)
	}
	if profile.MemoryBudgetMB != 4000 {
		t.Fatalf("MemoryBudgetMB=%d, want 4000", profile.MemoryBudgetMB)
	}
	if profile.HeapCutoffRatio != DefaultHeapCutoffRatio {
		t.Fatalf("HeapCutoffRatio=%v, want default", profile.HeapCutoffRatio)
	}
	if profile.HeapLimitCapMB != DefaultHeapLimitCapMB {
		t.Fatalf("HeapLimitCapMB=%d, want default", profile.HeapLimitCapMB)
	}
	if len(profile.ClasspathEntries) != 2 {
		t.Fatalf("ClasspathEntries=%v", profile.ClasspathEntries)
	}
	if profile.BaseEnvironment["TZ"] != "UTC" {
		t.Fatalf("BaseEnvironment=%v", profile.BaseEnvironment)
	}
}

func TestParseProfile_RejectsWrongSchema(t *testing.T) {
	bad := strings.Replace(sampleProfile, ProfileSchemaV1, "other.v2", 1)
	if _, err := ParseProfile([]byte(bad)); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestParseProfile_RejectsBadRatio(t *testing.T) {
	bad := sampleProfile + "heap_cutoff_ratio: 1.5\n"
	if _, err := ParseProfile([]byte(bad)); err == nil {
		t.Fatal("expected ratio error")
	}
}

func TestParseProfile_RejectsMissingBudget(t *testing.T) {
	bad := strings.Replace(sampleProfile, "memory_budget_mb: 4000", "memory_budget_mb: 0", 1)
	if _, err := ParseProfile([]byte(bad)); err == nil {
		t.Fatal("expected budget error")
	}
}
