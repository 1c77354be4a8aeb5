package logger

// NewWithWriter exposes newWithWriter to tests.
var NewWithWriter = newWithWriter
