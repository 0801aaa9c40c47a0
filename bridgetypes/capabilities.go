package bridgetypes

// Step identifies one stage of a route's lifecycle.
type Step string

const (
	StepInitiate Step = "initiate"
	StepProve    Step = "prove"
	StepExecute  Step = "execute"
	StepMonitor  Step = "monitor"
)

// RouteCapabilities describes what a route adapter supports, so callers
// (and the bridge client) can decide whether to call Prove at all, whether
// auto-relay already covers execution, and how to bound a monitor.
type RouteCapabilities struct {
	Steps         []Step
	AutoRelay     bool
	ManualExecute bool
	Prove         bool
	MinDelayMs    *uint64
	MaxWindowMs   *uint64
}

// HasStep reports whether the given step appears in Steps.
func (c RouteCapabilities) HasStep(step Step) bool {
	for _, s := range c.Steps {
		if s == step {
			return true
		}
	}
	return false
}
