package redis

/*
Options the plugin understands:

host = "localhost"
port = "6379"
password = ""
db = "0"
channel = "fleet.events"
*/

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/go-redis/redis/v8"
)

type Connector struct {
	client  *goredis.Client
	channel string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}

	db := 0
	if cfg["db"] != "" {
		var err error
		if db, err = strconv.Atoi(cfg["db"]); err != nil {
			return fmt.Errorf("failed to parse db number: %v", err)
		}
	}

	c.channel = cfg["channel"]
	if c.channel == "" {
		c.channel = "fleet.events"
	}

	c.client = goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg["host"], cfg["port"]),
		Password: cfg["password"],
		DB:       db,
	})

	if err := c.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("Redis is unreachable: %v", err)
	}
	return nil
}

func (c *Connector) Publish(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("invalid event reference")
	}

	body, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %v", err)
	}

	if err = c.client.Publish(context.Background(), c.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.client.Close()
}
