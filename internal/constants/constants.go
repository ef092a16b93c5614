package constants

import "time"

const (
	CacheFileName      = "scoreboard-global-cache-v1.json"
	DeviceUUIDFileName = "device-uuid-v1.txt"
	CacheMaxEntries    = 100
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

const (
	RegistryTimeout = 8 * time.Second
	RequestTimeout  = 30 * time.Second
	DatabaseTimeout = 5 * time.Second
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// daily challenge
const (
	MaxDailyAttempts = 3
	MaxBadgePower    = 9
	HistoryLimit     = 50
)

// entry sanitizer
const (
	MaxUserNameLen     = 20
	MaxSkillUsageItems = 20
	MaxSkillNameLen    = 20
	MaxSkillHotkeyLen  = 16
	MaxSkillCommandLen = 120
)

// replay proof
const (
	ReplayProofVersion   = 1
	MaxReplayFinalTime   = 2_000_000
	MaxReplayInputEvents = 20000
)
