// Package schedule arms the proactive refresh timer and the recurring
// idle-validation timer for one session.
//
// The scheduler never refreshes by itself. Both timers call the Trigger it
// was built with, which routes through the retry controller so cooldown and
// mutual exclusion apply uniformly.
package schedule
