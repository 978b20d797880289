package redis

import "fmt"

// namePoolKey returns the Redis key for the SET of every configured name
func namePoolKey(prefix string) string {
	return fmt.Sprintf("%s:names:pool", prefix)
}

// namesAvailableKey returns the Redis key for the SET of names not currently held
func namesAvailableKey(prefix string) string {
	return fmt.Sprintf("%s:names:available", prefix)
}
