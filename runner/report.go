package runner

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// jsoniter sorts map keys, so "_id" is printed first.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// StepResult is the outcome of one completed step.
type StepResult struct {
	Number   int
	Name     string
	Message  string
	Duration time.Duration
	Result   any
}

// Report lists the completed steps of a run in execution order.
// A failed run reports the steps completed before the failure.
type Report struct {
	RunID uuid.UUID
	Steps []StepResult
}

// Step returns the result of the named step.
func (r Report) Step(name string) (StepResult, bool) {
	for _, step := range r.Steps {
		if step.Name == name {
			return step, true
		}
	}

	return StepResult{}, false
}

func renderJSON(v any) string {
	rendered, err := jsonAPI.MarshalToString(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return rendered
}
