package common

type SessionState uint

const (
	QueueView SessionState = iota
	ComposeView
)
