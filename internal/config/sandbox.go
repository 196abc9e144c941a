package config

import (
	"strconv"
	"time"
)

type SandboxConfig struct {
	// MaxCodeBytes bounds submitted source size before any container is provisioned
	MaxCodeBytes int
	// WorkDir is where per-execution scratch directories are created; "" means os temp
	WorkDir string
	// LockTTL bounds how long an in-flight execution lock can be held
	LockTTL time.Duration
	// AwaitPollInterval is how often a replayed call polls for the winner's outcome
	AwaitPollInterval time.Duration
}

func NewSandboxConfig() *SandboxConfig {
	maxCode, err := strconv.Atoi(getEnv("SANDBOX_MAX_CODE_BYTES", ""))
	if err != nil {
		maxCode = 64 * 1024
	}
	lockTTLSec, err := strconv.Atoi(getEnv("SANDBOX_LOCK_TTL_SEC", ""))
	if err != nil {
		lockTTLSec = 120
	}
	return &SandboxConfig{
		MaxCodeBytes:      maxCode,
		WorkDir:           getEnv("SANDBOX_WORK_DIR", ""),
		LockTTL:           time.Duration(lockTTLSec) * time.Second,
		AwaitPollInterval: 100 * time.Millisecond,
	}
}
