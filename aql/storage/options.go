package storage

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options configures a persistent database.
type Options struct {
	// Logger receives storage messages and badger's own log output. Nil
	// discards both.
	Logger logrus.FieldLogger

	// InMemory keeps badger data in memory only; the path is ignored.
	InMemory bool

	// SyncWrites fsyncs every write before it returns.
	SyncWrites bool
}

// DefaultOptions returns quiet, on-disk options.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return discardLogger()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
