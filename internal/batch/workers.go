package batch

// DefaultMaxAutoWorkers is the auto-sizing upper bound for high-throughput runs.
// Conservative deployments configure 4.
const DefaultMaxAutoWorkers = 12

// ChooseWorkerCount sizes the worker pool. An explicit request wins but never
// exceeds the job count; otherwise the pool is min(upperBound, cpuCount, jobCount).
// The result is at least 1.
func ChooseWorkerCount(requested, cpuCount, jobCount, upperBound int) int {
	if jobCount < 1 {
		jobCount = 1
	}
	if requested > 0 {
		return min(requested, jobCount)
	}
	if upperBound < 1 {
		upperBound = DefaultMaxAutoWorkers
	}
	if cpuCount < 1 {
		cpuCount = 1
	}
	return max(min(upperBound, cpuCount, jobCount), 1)
}
