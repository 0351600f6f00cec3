// Package steps contains the steps to do workflow orchestration.
//
// A step declares the attributes it takes as input, the attributes it produces
// when it succeeds and the ones it produces when it fails. Its action reads the
// input from the interaction and ends by calling Succeed or Fail on it, or by
// returning normally when it has no success attributes.
// Before, after and around hooks wrap the action, around hooks get a continuation
// they have to call to run the rest of the step.
//
// An organizer runs its children in order on one shared context. When a step
// fails, or returns any other error, every step that completed on the context is
// compensated in reverse completion order and the error is returned.
// Call hands an explicit failure back as the state of the interaction,
// CallStrict returns it as a *ExecutionFailure.
//
//	charge := steps.New("charge",
//		steps.Input(amount.Required()),
//		steps.Success(receipt.Required()),
//		steps.Failure(reason.Required()),
//		steps.Around(steps.Retry(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 4))),
//		steps.Do(chargeCard),
//		steps.Undo(refund),
//	)
//
//	it, err := steps.Execution(
//		steps.Should(rollback.Always),
//		steps.PublishTo(eventbus.New(interaktor.GoLog(os.Stderr, "", 0))),
//	).Call(
//		steps.Organizer("checkout",
//			steps.Input(amount.Required()),
//			steps.Success(receipt.Required()),
//			steps.Organize(reserveStock, charge, ship),
//		),
//		amount.Val(1200),
//	)
//
// Steps are executed by an executor, there is one default executor consuming types can make use of.
package steps
