// File: utils/constants.go
package utils

// SessionKeyPrefix is the Redis key prefix for booking sessions.
const SessionKeyPrefix = "session:"

// SessionSlotIndexPrefix is the Redis key prefix for the slot-to-session index.
const SessionSlotIndexPrefix = "session:slot:"

// StashKeyPrefix is the Redis key prefix for booking stash entries.
const StashKeyPrefix = "stash:"
