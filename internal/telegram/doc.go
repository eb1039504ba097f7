// Package telegram implements the delivery collaborator against the Telegram
// Bot API: recipient discovery via getUpdates and best-effort multipart
// photo broadcasts via sendPhoto.
package telegram
