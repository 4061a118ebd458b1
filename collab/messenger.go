package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// keepMessages caps the per-book chat history kept in redis.
const keepMessages = 500

// Message is a single chat message attached to a book.
type Message struct {
	AuthorID int64     `json:"authorId"`
	Author   string    `json:"author"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sentAt"`
}

func messagesKey(bookID int64) string {
	return fmt.Sprintf("book:%d:messages", bookID)
}

// Append stores a message at the tail of the book's history and trims the
// list to the newest keepMessages entries.
func (c *Client) Append(ctx context.Context, bookID int64, msg Message) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	key := messagesKey(bookID)
	pipe := c.internal.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -keepMessages, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest messages, oldest first.
func (c *Client) Recent(ctx context.Context, bookID int64, n int) ([]Message, error) {
	if n <= 0 || n > keepMessages {
		n = keepMessages
	}
	raw, err := c.internal.LRange(ctx, messagesKey(bookID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// skip corrupt entries instead of failing the whole history
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
