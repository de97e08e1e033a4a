// Package minidb is the top-level facade for the minidb statement engine.
package minidb

import (
	"github.com/tuannm99/minidb/internal/engine"
	"github.com/tuannm99/minidb/internal/sql/executor"
	"github.com/tuannm99/minidb/internal/storage"
)

type (
	Database    = engine.Database
	Result      = executor.Result
	LoadWarning = storage.LoadWarning
)
