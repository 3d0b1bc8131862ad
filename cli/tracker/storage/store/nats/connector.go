package nats

/*
Options the plugin understands:

host = "localhost"
port = "4222"
subject = "fleet.events"
*/

import (
	"fmt"

	natsio "github.com/nats-io/nats.go"
)

type Connector struct {
	connection *natsio.Conn
	subject    string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}

	c.subject = cfg["subject"]
	if c.subject == "" {
		c.subject = "fleet.events"
	}

	url := fmt.Sprintf("nats://%s:%s", cfg["host"], cfg["port"])
	if c.connection, err = natsio.Connect(url); err != nil {
		return fmt.Errorf("failed to connect to NATS: %v", err)
	}
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

	if err = c.connection.Publish(c.subject, body); err != nil {
		return fmt.Errorf("failed to publish message: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	c.connection.Close()
	return nil
}
