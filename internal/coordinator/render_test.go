package coordinator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestEscapeString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: `line1` + "\n" + `line2"x"`, want: `line1<br>line2\"x\"`},
		{in: `a\b`, want: `a\\b`},
		{in: "a/b", want: `a\/b`},
		{in: "tab\there", want: `tab\there`},
		{in: "cr\rff\fbs\b", want: `cr\rff\fbs\b`},
		{in: "ctl\x01\x02dropped", want: "ctldropped"},
		{in: "plain", want: "plain"},
	}
	for _, tc := range cases {
		if got := EscapeString(tc.in); got != tc.want {
			t.Fatalf("EscapeString(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeString_NoRawQuotesOrNewlines(t *testing.T) {
	inputs := []string{
		`he said "hi"`,
		"multi\nline\nname",
		`back\slash`,
		"mix\"\n\\\t",
	}
	for _, in := range inputs {
		got := EscapeString(in)
		if strings.Contains(got, "\n") {
			t.Fatalf("EscapeString(%q)=%q contains raw newline", in, got)
		}
		stripped := strings.ReplaceAll(strings.ReplaceAll(got, `\\`, ""), `\"`, "")
		if strings.Contains(stripped, `"`) {
			t.Fatalf("EscapeString(%q)=%q contains unescaped quote", in, got)
		}
		if strings.Contains(stripped, `\`) && !containsOnlyMappedEscapes(stripped) {
			t.Fatalf("EscapeString(%q)=%q contains unescaped backslash", in, got)
		}
	}
}

func containsOnlyMappedEscapes(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		if i+1 >= len(s) {
			return false
		}
		switch s[i+1] {
		case 'b', 't', 'r', 'f', '/':
			i++
		default:
			return false
		}
	}
	return true
}

func TestRenderRunningJobs_Empty(t *testing.T) {
	if got := RenderRunningJobs(nil); got != "[]" {
		t.Fatalf("RenderRunningJobs(nil)=%q, want []", got)
	}
}

func TestRenderRunningJobs_TwoJobsOneUnnamed(t *testing.T) {
	first := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	second := uuid.MustParse("66666666-7777-8888-9999-aaaaaaaaaaaa")
	jobs := []JobStatusRecord{
		{JobID: first, JobName: "wordcount", State: "RUNNING", StateTimestampMillis: 1700000000123},
		{JobID: second, State: "CREATED", StateTimestampMillis: 1700000000456},
	}

	got := RenderRunningJobs(jobs)

	var parsed []map[string]any
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, got)
	}
	if len(parsed) != 2 {
		t.Fatalf("len=%d, want 2", len(parsed))
	}
	if parsed[0]["jobid"] != first.String() || parsed[0]["jobname"] != "wordcount" {
		t.Fatalf("first record=%v", parsed[0])
	}
	if parsed[0]["status"] != "RUNNING" {
		t.Fatalf("first status=%v", parsed[0]["status"])
	}
	if parsed[0]["time"].(float64) != 1700000000123 {
		t.Fatalf("first time=%v", parsed[0]["time"])
	}
	if _, hasName := parsed[1]["jobname"]; hasName {
		t.Fatalf("unnamed job must omit jobname: %v", parsed[1])
	}
	// the coordinator's order is authoritative
	if parsed[0]["jobid"] != first.String() || parsed[1]["jobid"] != second.String() {
		t.Fatalf("order not preserved: %v", parsed)
	}
}

func TestRenderRunningJobs_TimeIsBareNumber(t *testing.T) {
	jobs := []JobStatusRecord{{JobID: uuid.New(), State: "FINISHED", StateTimestampMillis: 42}}
	got := RenderRunningJobs(jobs)
	if !strings.Contains(got, `"time": 42}`) {
		t.Fatalf("time not rendered as bare number: %s", got)
	}
}
