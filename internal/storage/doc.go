// Package storage provides the file clients the build pipeline reads from
// and publishes to: a plain filesystem client and a Nextcloud WebDAV
// client. Both satisfy the same Client interface so the executor does not
// care where images, music, or the finished video live.
package storage
