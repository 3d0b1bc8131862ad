package storage

import (
	"errors"

	"github.com/daniil11ru/fleettrack/cli/tracker/storage/store/mysql"
	"github.com/daniil11ru/fleettrack/cli/tracker/storage/store/nats"
	"github.com/daniil11ru/fleettrack/cli/tracker/storage/store/postgresql"
	"github.com/daniil11ru/fleettrack/cli/tracker/storage/store/rabbitmq"
	"github.com/daniil11ru/fleettrack/cli/tracker/storage/store/redis"
	"github.com/daniil11ru/fleettrack/cli/tracker/storage/store/tarantool_queue"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidStorage = errors.New("no publishers configured")
var ErrUnknownStorage = errors.New("publisher plugin is not supported")

type Store interface {
	Connector
	Publisher
}

// Publisher is an outbound sink for fleet change events.
type Publisher interface {
	Publish(interface{ ToBytes() ([]byte, error) }) error
}

// Connector manages the connection to an external sink.
type Connector interface {
	// Init establishes the connection using plugin-specific options.
	Init(map[string]string) error

	// Close tears the connection down.
	Close() error
}

// Repository fans change events out to every configured publisher.
type Repository struct {
	publishers []Publisher
	entities   map[types.EntityKind]bool
}

// AddPublisher registers an outbound sink.
func (r *Repository) AddPublisher(p Publisher) {
	r.publishers = append(r.publishers, p)
}

// Publish sends the event to all registered sinks. Change events outside
// the configured entity filter are dropped with a log line.
func (r *Repository) Publish(m interface{ ToBytes() ([]byte, error) }) error {
	if len(r.entities) > 0 {
		if event, ok := m.(*types.ChangeEvent); ok && !r.entities[event.Entity] {
			log.Debugf("Change event for %s is outside the publish filter, dropped", event.Entity)
			return nil
		}
	}

	for _, p := range r.publishers {
		if err := p.Publish(m); err != nil {
			return err
		}
	}
	return nil
}

// LoadPublishers instantiates publisher plugins from the config structure.
func (r *Repository) LoadPublishers(publishers map[string]map[string]string) error {
	if len(publishers) == 0 {
		return ErrInvalidStorage
	}

	var sink Store
	for plugin, params := range publishers {
		switch plugin {
		case "rabbitmq":
			sink = &rabbitmq.Connector{}
		case "postgresql":
			sink = &postgresql.Connector{}
		case "nats":
			sink = &nats.Connector{}
		case "tarantool_queue":
			sink = &tarantool_queue.Connector{}
		case "redis":
			sink = &redis.Connector{}
		case "mysql":
			sink = &mysql.Connector{}
		default:
			return ErrUnknownStorage
		}

		if err := sink.Init(params); err != nil {
			return err
		}

		r.AddPublisher(sink)
	}
	return nil
}

// NewRepository creates an empty repository. With no entity kinds given,
// every change event passes the filter.
func NewRepository(entities ...types.EntityKind) *Repository {
	r := &Repository{}
	if len(entities) > 0 {
		r.entities = make(map[types.EntityKind]bool, len(entities))
		for _, e := range entities {
			r.entities[e] = true
		}
	}
	return r
}
