package db

// Timestamp layouts stored as TEXT.
const (
	// sqlTimeLayout matches SQLite's datetime() output.
	sqlTimeLayout = "2006-01-02 15:04:05"

	// recordTimeLayout keeps sub-second precision for analysis timestamps.
	recordTimeLayout = "2006-01-02T15:04:05.999999999Z07:00"
)
