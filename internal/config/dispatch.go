package config

import "strconv"

type DispatchConfig struct {
	Workers       int
	QueueCapacity int
}

func NewDispatchConfig() *DispatchConfig {
	workers, err := strconv.Atoi(getEnv("DISPATCH_WORKERS", ""))
	if err != nil {
		workers = 5
	}
	capacity, err := strconv.Atoi(getEnv("DISPATCH_QUEUE_CAPACITY", ""))
	if err != nil {
		capacity = 100
	}
	return &DispatchConfig{
		Workers:       workers,
		QueueCapacity: capacity,
	}
}
