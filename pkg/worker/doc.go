// Package worker provides the Worker type, the continuous polling loop.
//
// A Worker owns one database connection for the lifetime of a run. Each
// iteration claims the next due job inside a fresh transaction and services
// it; an empty poll emits drain and waits PollInterval on the queue's clock.
// Stop is cooperative: the cycle in flight always completes.
//
// Most users should import the root package github.com/jdziat/rowlock-jobs
// which exposes a Worker through Controller.StartProcessing.
package worker
