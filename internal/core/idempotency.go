package core

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

const guardWindow = 5 * time.Minute

// Guard deduplicates webhook deliveries and filters echoes of the bot's own
// outgoing messages. Entries live for a short window, long enough to cover
// webhook retries.
type Guard struct {
	cache *bigcache.BigCache
}

func NewGuard() (*Guard, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(guardWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to create idempotency cache: %w", err)
	}
	return &Guard{cache: cache}, nil
}

// ShouldProcess reports whether this message id has been seen within the
// window, marking it seen as a side effect. The first caller for an id gets
// true; every retry within the window gets false.
func (g *Guard) ShouldProcess(messageID int) bool {
	key := fmt.Sprintf("msg:%d", messageID)
	if _, err := g.cache.Get(key); err == nil {
		return false
	}
	_ = g.cache.Set(key, []byte{1})
	return true
}

// ShouldProcessKey is ShouldProcess for channels whose message ids are
// opaque strings.
func (g *Guard) ShouldProcessKey(key string) bool {
	if _, err := g.cache.Get("msg:" + key); err == nil {
		return false
	}
	_ = g.cache.Set("msg:"+key, []byte{1})
	return true
}

// MarkSent records a message id the bot itself created, so the webhook echo
// of that message is not treated as agent activity.
func (g *Guard) MarkSent(messageID int) {
	_ = g.cache.Set(fmt.Sprintf("sent:%d", messageID), []byte{1})
}

// WasSentByBot reports whether a message id was recorded by MarkSent within
// the window.
func (g *Guard) WasSentByBot(messageID int) bool {
	_, err := g.cache.Get(fmt.Sprintf("sent:%d", messageID))
	return err == nil
}
