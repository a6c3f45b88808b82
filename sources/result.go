// Package sources wraps the three upstream systems the dashboard reads from:
// the CRM REST API, the Google spreadsheet and the Postgres read store.
//
// Read paths never return errors. A failed read is logged and replaced by a
// synthetic dataset shaped like the live one, flagged through Result.
package sources

import (
	"github.com/sirupsen/logrus"
)

// Result is the outcome of one adapter read.
type Result[T any] struct {
	Data        []T
	IsSynthetic bool
}

func live[T any](data []T) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{Data: data}
}

func synthetic[T any](data []T) Result[T] {
	return Result[T]{Data: data, IsSynthetic: true}
}

func defaultLogger(logger *logrus.Entry, component string) *logrus.Entry {
	if logger != nil {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithField("component", component)
}
