package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomName(t *testing.T) {
	assert.Equal(t, "chat_3_9", RoomName(3, 9), "expected lower id first")
	assert.Equal(t, "chat_3_9", RoomName(9, 3), "expected same name regardless of order")
}

func TestRoomNameCommutative(t *testing.T) {
	for a := 1; a <= 10; a++ {
		for b := 1; b <= 10; b++ {
			assert.Equal(t, RoomName(a, b), RoomName(b, a),
				"expected RoomName(%d, %d) to equal RoomName(%d, %d)", a, b, b, a)
		}
	}
}

func TestRoomNameDistinctPerPair(t *testing.T) {
	seen := make(map[string]string)
	for a := 1; a <= 10; a++ {
		for b := a + 1; b <= 10; b++ {
			name := RoomName(a, b)
			pair := fmt.Sprintf("%d/%d", a, b)
			if prev, ok := seen[name]; ok {
				t.Fatalf("pairs %s and %s resolved to the same room %q", prev, pair, name)
			}
			seen[name] = pair
		}
	}
}
