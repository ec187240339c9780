// Package bot turns control-room messages into daemon actions: triggering
// builds, reading and overriding settings, and reporting status. Replies
// are rendered twice, as plain text and as Matrix HTML.
package bot
