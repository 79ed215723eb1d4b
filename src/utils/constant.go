package utils

// -----------------------------------------------------------------------------

// Constants for retention and in-memory history.
// The dashboard chart shows the most recent minute of 1 Hz ticks, so the
// in-memory ring keeps 60 points per symbol.
const (
	DefaultRetentionDays = 7
	HistoryWindowPoints  = 60
)
