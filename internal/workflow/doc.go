// Package workflow owns the daemon's build lifecycle. The manager accepts
// build requests from the scheduler, the chat bot, and the CLI, enforces
// that only one build runs at a time, and keeps the most recent build
// record for the status surfaces. It also fires cron-scheduled builds and
// refreshes the heartbeat file.
package workflow
