// Package schedule provides recurrence rules for jobs that reschedule
// themselves with core.RetryOn.
//
// This package includes:
//   - Every() for fixed-interval schedules
//   - Daily() and DailyIn() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() and ParseCron() for cron expression-based schedules
package schedule
