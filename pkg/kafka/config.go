package kafka

import (
	"errors"
	"time"
)

const (
	DefaultMaxAttempts  = 3
	DefaultBatchTimeout = 10 * time.Millisecond
	DefaultRequireAcks  = -1
	DefaultCompression  = "snappy"
)

// Config holds the writer settings for a single topic.
type Config struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int
	Compression  string
	Async        bool
}

func DefaultConfig(brokers []string, topic string) Config {
	return Config{
		Brokers:      brokers,
		Topic:        topic,
		MaxAttempts:  DefaultMaxAttempts,
		BatchTimeout: DefaultBatchTimeout,
		RequireAcks:  DefaultRequireAcks,
		Compression:  DefaultCompression,
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Brokers) == 0 {
		errs = append(errs, errors.New("at least one broker is required"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic cannot be empty"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.RequireAcks < -1 || c.RequireAcks > 1 {
		errs = append(errs, errors.New("require acks must be -1, 0 or 1"))
	}
	return errors.Join(errs...)
}
