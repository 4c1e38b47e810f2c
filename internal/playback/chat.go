package playback

import (
	"time"

	"github.com/starford/cinesuite/internal/scene"
)

// Delays after which a sent chat message shows as delivered and read.
const (
	DeliveredAfter = 800 * time.Millisecond
	ReadAfter      = 2 * time.Second
)

type sentMessage struct {
	msg scene.ChatMessage
	at  time.Time
}

// DeliveryStatus returns the status of a message sent at sentAt, seen at now.
func DeliveryStatus(sentAt, now time.Time) string {
	switch elapsed := now.Sub(sentAt); {
	case elapsed >= ReadAfter:
		return scene.StatusRead
	case elapsed >= DeliveredAfter:
		return scene.StatusDelivered
	default:
		return scene.StatusSent
	}
}
