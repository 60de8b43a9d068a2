package redis

import "fmt"

// playersKey returns the HASH of username -> JSON-encoded Player
func playersKey(prefix string) string {
	return fmt.Sprintf("%s:players", prefix)
}

// rankingsKey returns the ZSET of username scored by ranking points
func rankingsKey(prefix string) string {
	return fmt.Sprintf("%s:rankings", prefix)
}
