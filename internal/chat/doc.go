// Package chat connects the daemon to its Matrix control room. The Client
// long-polls the sync endpoint for operator commands and posts replies,
// with HTML formatting where the renderer provides it. Only the small
// slice of the client-server API the bot needs is implemented.
package chat
