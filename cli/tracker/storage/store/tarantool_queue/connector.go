package tarantool_queue

/*
Options the plugin understands:

host = "localhost"
port = "3301"
user = "user"
password = "pass"
max_recons = 5
timeout = 1
reconnect = 1
queue = "fleet_events"
*/

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tarantool/go-tarantool"
	"github.com/tarantool/go-tarantool/queue"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// envelope wraps the serialized event with its enqueue time so consumers
// can measure queue latency.
type envelope struct {
	EnqueuedAt int64  `msgpack:"enqueued_at"`
	Data       []byte `msgpack:"data"`
}

type Connector struct {
	connection *tarantool.Connection
	queue      queue.Queue
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}

	c.config = cfg
	conStr := fmt.Sprintf("%s:%s", c.config["host"], c.config["port"])

	maxRecons, err := strconv.Atoi(c.config["max_recons"])
	if err != nil {
		return fmt.Errorf("failed to parse max_recons: %v", err)
	}
	timeout, err := strconv.Atoi(c.config["timeout"])
	if err != nil {
		return fmt.Errorf("failed to parse timeout: %v", err)
	}
	reconnect, err := strconv.Atoi(c.config["reconnect"])
	if err != nil {
		return fmt.Errorf("failed to parse reconnect: %v", err)
	}
	opts := tarantool.Opts{
		Timeout:       time.Duration(timeout) * time.Second,
		Reconnect:     time.Duration(reconnect) * time.Second,
		MaxReconnects: uint(maxRecons),
		User:          c.config["user"],
		Pass:          c.config["password"],
	}

	c.connection, err = tarantool.Connect(conStr, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to Tarantool: %v", err)
	}
	c.queue = queue.New(c.connection, c.config["queue"])

	return err
}

func (c *Connector) Publish(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("invalid event reference")
	}

	body, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %v", err)
	}

	task, err := msgpack.Marshal(envelope{EnqueuedAt: time.Now().Unix(), Data: body})
	if err != nil {
		return fmt.Errorf("failed to encode the queue task: %v", err)
	}

	if _, err = c.queue.Put(task); err != nil {
		return fmt.Errorf("failed to enqueue message: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
