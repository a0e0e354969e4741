// Package chaos injects simulated failures and latency into mutation paths.
//
// The delete path of the notes page fails at random after a fixed delay so that
// the optimistic UI can be exercised against an unreliable backend. Both the
// failure decision and the delay are interfaces, so tests can force either
// branch deterministically and skip the wait.
package chaos
