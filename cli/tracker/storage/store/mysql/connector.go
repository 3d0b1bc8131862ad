package mysql

/*
Options the plugin understands:

host = "localhost"
port = "3306"
user = "root"
password = "root"
database = "fleettrack"
table = "change_event"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
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
	connStr := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"], c.config["database"])
	if c.connection, err = sql.Open("mysql", connStr); err != nil {
		return fmt.Errorf("failed to connect to MySQL: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("MySQL is unreachable: %v", err)
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

	insertQuery := fmt.Sprintf("INSERT INTO %s (event_data) VALUES (?)", c.config["table"])
	if _, err = c.connection.Exec(insertQuery, body); err != nil {
		return fmt.Errorf("failed to insert record: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
