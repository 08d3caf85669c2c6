package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
)

// Op names used for error context. Key-value ops mirror Valkey/Redis
// command names; SQL ops name the statement kind.
const (
	OpPing    = "PING"
	OpGet     = "GET"
	OpMGet    = "MGET"
	OpSet     = "SET"
	OpDel     = "DEL"
	OpHGetAll = "HGETALL"
	OpHSet    = "HSET"
	OpExists  = "EXISTS"
	OpScan    = "SCAN"

	OpMigrate = "MIGRATE"
	OpSelect  = "SELECT"
	OpUpsert  = "UPSERT"
	OpDelete  = "DELETE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
