// Package eventloop runs tasks one at a time on a single goroutine.
//
// Socket callbacks, timer expiries and host events are all posted to the
// same Loop, so state touched only from tasks needs no locking. Tasks run to
// completion in the order they were posted.
//
// # Timers
//
// AfterFunc schedules a task to be posted after a delay. A Timer stopped from
// a loop task is guaranteed not to run afterwards, even if its delay already
// elapsed and the expiry is waiting in the queue.
package eventloop
