package agent

import "errors"

// Pipeline error kinds. Handlers translate these into the single sanitized
// message a caller sees; raw driver or backend detail never crosses the
// transport boundary.
var (
	// ErrSynthesisFailed: generation backend unreachable or returned nothing.
	ErrSynthesisFailed = errors.New("query synthesis failed")

	// ErrUnsafeStatement: safety gate rejection, never executed.
	ErrUnsafeStatement = errors.New("unsafe statement")

	// ErrExecutionFailed: driver or timeout error during the query run.
	ErrExecutionFailed = errors.New("query execution failed")
)

// UserMessage maps a pipeline error onto the message shown to the caller.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsafeStatement):
		return "That request would modify data, so it was not executed. Write operations require manual review and authorization."
	case errors.Is(err, ErrSynthesisFailed):
		return "Sorry, I couldn't work out a query for that request. Please try rephrasing it."
	case errors.Is(err, ErrExecutionFailed):
		return "The query could not be completed. Please try again in a moment."
	case err != nil:
		return "Something went wrong handling your request."
	default:
		return ""
	}
}
