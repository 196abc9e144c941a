package config

import "strconv"

type HTTPConfig struct {
	Port int
}

func NewHTTPConfig() *HTTPConfig {
	port, err := strconv.Atoi(getEnv("HTTP_PORT", ""))
	if err != nil {
		port = 8082
	}
	return &HTTPConfig{Port: port}
}
