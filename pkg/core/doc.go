// Package core provides the fundamental types and interfaces for the jobs package.
//
// This package contains:
//   - Job data model with GORM annotations
//   - Store, Conn and Tx interfaces defining the persistence contract
//   - Outcome, the result a processing function returns
//   - Event types and the Observer interface for lifecycle monitoring
//   - Error types for the controller
//
// Most users should import the root package github.com/jdziat/rowlock-jobs
// instead of this package directly.
package core
