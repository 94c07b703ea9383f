package server

import "fmt"

// RoomName derives the broadcast channel for an unordered pair of users.
// The lower id always comes first, so both participants resolve the same
// name regardless of who connects first.
func RoomName(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat_%d_%d", a, b)
}
