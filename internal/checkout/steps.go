package checkout

type Step string

const (
	StepShipping  Step = "shipping"
	StepPayment   Step = "payment"
	StepReview    Step = "review"
	StepConfirmed Step = "confirmed"
)

// Moving backwards to edit an earlier step is always allowed; Confirmed is
// terminal.
var validNext = map[Step]map[Step]bool{
	StepShipping:  {StepPayment: true},
	StepPayment:   {StepShipping: true, StepReview: true},
	StepReview:    {StepShipping: true, StepPayment: true, StepConfirmed: true},
	StepConfirmed: {},
}

func CanTransition(from, to Step) bool {
	return validNext[from][to]
}

func ValidStep(s Step) bool {
	_, ok := validNext[s]
	return ok
}
