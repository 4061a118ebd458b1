package collab

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conf holds Redis connection settings.
type Conf struct {
	Host string
	Port int
	PW   string
	DB   int
}

// Client wraps the redis connection used for book chat and presence.
type Client struct {
	Conf *Conf

	internal *redis.Client
}

func NewClient(conf *Conf) *Client {
	return &Client{Conf: conf}
}

func (c *Client) Init() error {
	c.internal = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Conf.Host, c.Conf.Port),
		Password: c.Conf.PW,
		DB:       c.Conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.internal.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	log.Println("[INFO] collab client initialized")
	return nil
}

func (c *Client) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}
