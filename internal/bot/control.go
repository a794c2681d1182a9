package bot

type action int

const (
	// actContinue returns to the loop head on the same page.
	actContinue action = iota
	actAdvancePage
	actResetAndPause
	actTerminate
)

type Reason string

const (
	ReasonCancelled     Reason = "cancelled"
	ReasonTargetReached Reason = "target_reached"
	ReasonFatal         Reason = "fatal"
)

// control is what one step of the loop asks the loop to do next.
type control struct {
	action action
	reason Reason
}

var (
	proceed      = control{action: actContinue}
	advancePage  = control{action: actAdvancePage}
	resetAndWait = control{action: actResetAndPause}
)

func terminate(r Reason) control {
	return control{action: actTerminate, reason: r}
}
