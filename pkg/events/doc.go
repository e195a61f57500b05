// Package events provides the lifecycle event channel for the jobs package.
//
// Hooks is created per controller and injected, so listeners attached in one
// test or one worker never see another instance's events. Events fired:
//   - jobUpdated: a successful cycle committed a job rewrite
//   - maybeServiceJob: top of each polling iteration
//   - drain: a poll found no due job
//   - processCommitted / processNowCommitted: a cycle's transaction resolved
//   - serviceFailed: a cycle failed
//   - stopProcess: a polling loop exited
package events
