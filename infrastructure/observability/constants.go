package observability

// Metric name prefixes
const (
	MetricPrefix = "fintrack"
)

// Metric names
const (
	// Schedule metrics
	ScheduleExecutionsTotal = MetricPrefix + ".schedules.executions_total"

	// Scanner metrics
	ScanRunsTotal     = MetricPrefix + ".scanner.runs_total"
	ScanDueSchedules  = MetricPrefix + ".scanner.due_schedules"
	ScanFailuresTotal = MetricPrefix + ".scanner.failures_total"
	ScanDuration      = MetricPrefix + ".scanner.duration"

	// Net worth metrics
	NetWorthValue = MetricPrefix + ".networth.value"
)

// Label keys
const (
	LabelTrigger = "trigger"
	LabelOutcome = "outcome"
)
