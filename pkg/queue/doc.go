// Package queue provides the Queue type, the lifecycle controller for jobs.
//
// This package includes:
//   - Queue: creates jobs and services a specific job immediately (ProcessNow)
//   - Service: the protocol shared by ProcessNow and the worker polling loop
//   - Session: a single-use transaction wrapper
//   - Option: configuration of the observer, clock and logger
//
// Most users should import the root package github.com/jdziat/rowlock-jobs
// which wraps Queue and a Worker in a single Controller.
package queue
