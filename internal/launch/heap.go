package launch

const (
	DefaultHeapCutoffRatio = 0.8
	DefaultHeapLimitCapMB  = 500
)

// ComputeHeapLimit sizes the worker heap for a container memory budget.
// The resource manager kills containers that overshoot their allocation,
// and the worker process allocates more than just heap, so the heap gets
// cutoffRatio of the budget. Once that reservation would exceed capMB the
// cap wins: heap = budget - capMB.
//
// Inputs must be positive; callers own that precondition.
func ComputeHeapLimit(memoryBudgetMB int, cutoffRatio float64, capMB int) int {
	heapLimit := int(float64(memoryBudgetMB) * cutoffRatio)
	if memoryBudgetMB-heapLimit > capMB {
		heapLimit = memoryBudgetMB - capMB
	}
	return heapLimit
}
