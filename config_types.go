package nsca

import "log"

const defaultPort uint16 = 5667

// ClientConfig configures a Client.
type ClientConfig struct {
	Host             string
	Port             uint16
	EncryptionMethod EncryptionMethod
	Password         string
	Logger           *log.Logger
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// ServerConfig configures a Server. An empty Host binds all
// interfaces.
type ServerConfig struct {
	Host             string
	Port             uint16
	EncryptionMethod EncryptionMethod
	Password         string
	Logger           *log.Logger

	// QueueCapacity bounds the reports channel; non-positive values
	// fall back to a default of 4096. Unlike the original NSCA daemon's
	// unbounded queue, a bounded channel trades memory safety under a
	// slow consumer for dropped reports, surfaced via DroppedReports.
	QueueCapacity int
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}
