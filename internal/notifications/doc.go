// Package notifications delivers build events via ntfy.
//
// The service is rebuilt per build from the effective configuration, so
// flipping ENABLE_NTFY or NTFY_TOPIC from chat takes effect on the next
// run. When notifications are disabled the constructor hands back a no-op
// implementation; the executor logs delivery failures and never fails a
// build over them.
package notifications
