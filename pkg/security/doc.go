// Package security provides validation, sanitization, and limits for the jobs package.
//
// This package includes:
//   - Job data size limits and job id validation
//   - Error message sanitization before errors reach the logs
//   - Clamping for the worker poll interval
package security
