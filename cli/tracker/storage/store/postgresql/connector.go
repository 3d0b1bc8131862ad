package postgresql

/*
Options the plugin understands (none are mandatory):

host = "localhost"
port = "5432"
user = "postgres"
password = "postgres"
database = "fleettrack"
table = "change_event"
sslmode = "disable"
payload_field = "event_data"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type Connector struct {
	connection *sql.DB
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
	connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		c.config["database"], c.config["host"], c.config["port"], c.config["user"], c.config["password"], c.config["sslmode"])
	if c.connection, err = sql.Open("postgres", connStr); err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("PostgreSQL is unreachable: %v", err)
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

	payloadField := c.config["payload_field"]
	if payloadField == "" {
		log.Warnf("Key 'payload_field' not found in the publisher configuration. Falling back to 'event_data'.")
		payloadField = "event_data"
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1)", c.config["table"], payloadField)
	if _, err = c.connection.Exec(insertQuery, body); err != nil {
		return fmt.Errorf("failed to insert record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
