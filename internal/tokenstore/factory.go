package tokenstore

import "fmt"

// New builds the keyspace for the configured driver.
func New(cfg Config, deps Dependencies) (Keyspace, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.Dir)
	case DriverRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis driver requires a client")
		}
		return NewRedis(deps.Redis, cfg.Prefix, cfg.TTL), nil
	case DriverPostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("postgres driver requires a connection pool")
		}
		return NewPostgres(deps.Postgres, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported token store driver: %s", driver)
	}
}
