package launch

import "testing"

func TestComputeHeapLimit(t *testing.T) {
	cases := []struct {
		name     string
		budgetMB int
		ratio    float64
		capMB    int
		want     int
	}{
		{name: "ratio wins below cap", budgetMB: 2000, ratio: 0.8, capMB: 500, want: 1600},
		{name: "cap overrides ratio", budgetMB: 4000, ratio: 0.8, capMB: 500, want: 3500},
		{name: "small budget", budgetMB: 100, ratio: 0.8, capMB: 500, want: 80},
		{name: "boundary no override", budgetMB: 2500, ratio: 0.8, capMB: 500, want: 2000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeHeapLimit(tc.budgetMB, tc.ratio, tc.capMB)
			if got != tc.want {
				t.Fatalf("ComputeHeapLimit(%d, %v, %d)=%d, want %d", tc.budgetMB, tc.ratio, tc.capMB, got, tc.want)
			}
		})
	}
}

func TestComputeHeapLimit_NeverExceedsBudget(t *testing.T) {
	for budget := 1; budget <= 10000; budget += 37 {
		got := ComputeHeapLimit(budget, DefaultHeapCutoffRatio, DefaultHeapLimitCapMB)
		if got > budget {
			t.Fatalf("ComputeHeapLimit(%d)=%d exceeds budget", budget, got)
		}
	}
}

func TestComputeHeapLimit_MonotonicInBudget(t *testing.T) {
	prev := 0
	for budget := 1; budget <= 10000; budget++ {
		got := ComputeHeapLimit(budget, DefaultHeapCutoffRatio, DefaultHeapLimitCapMB)
		if got < prev {
			t.Fatalf("ComputeHeapLimit not monotonic at budget=%d: %d < %d", budget, got, prev)
		}
		prev = got
	}
}
