// Package tasks runs a step, usually an organizer, as a single task.
//
// A task owns the event bus the steps publish their lifecycle on, and keeps
// track of the status of every step in the tree so callers can inspect it
// while the task runs and after it finished.
//
//	tsk := tasks.Create(
//		tasks.Run(checkout),
//		tasks.LogWith(interaktor.GoLog(os.Stderr, "[checkout] ", log.LstdFlags)),
//	)
//	it, err := tsk.Run(attrs.Values{"order": order})
//	info, _ := tsk.FirstInfo("checkout.charge")
package tasks
