package rabbitmq

/*
Options the plugin understands:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "fleet"
routing_key = "fleet.events"
*/

import (
	"fmt"

	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("invalid configuration reference")
	}
	c.config = cfg

	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"])
	if c.connection, err = amqp.Dial(url); err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	if c.channel, err = c.connection.Channel(); err != nil {
		return fmt.Errorf("failed to open a channel: %v", err)
	}

	if err = c.channel.ExchangeDeclare(c.config["exchange"], "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare the exchange: %v", err)
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

	err = c.channel.Publish(c.config["exchange"], c.config["routing_key"], false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.connection.Close()
}
