package core

// Progress is a single progress update emitted by the backend during a
// synchronous transaction
type Progress struct {
	Percentage int    // 0-100, or -1 when the backend cannot tell
	Status     string // backend status text, e.g. "download" or "install"
}

// ProgressFunc receives progress updates. It is called on the goroutine
// that issued the transaction.
type ProgressFunc func(Progress)
