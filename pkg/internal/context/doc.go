// Package context provides internal context helpers for job execution.
//
// This package is internal and should not be imported directly. It carries
// the job being serviced into the processing function's context.
package context
