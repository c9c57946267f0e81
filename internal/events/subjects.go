package events

const (
	StreamName   = "PLANNER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectRunCompleted(runID string) string { return "audit.plan." + runID + ".completed" }
func SubjectRunFailed(runID string) string    { return "audit.plan." + runID + ".failed" }
func SubjectRunScored(runID string) string    { return "audit.plan." + runID + ".scored" }
