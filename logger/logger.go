// Package logger provides adapters for popular logger libraries to work with coredb's Logger interface.
//
// The adapters allow you to use your existing logger with coredb without writing boilerplate.
// Note that the standard library's slog.Logger already implements coredb.Logger directly.
//
// Example with zap:
//
//	import (
//	    "coredb"
//	    "coredb/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    dm, _ := coredb.NewFileDiskManager("data.db")
//	    defer dm.Close()
//
//	    bp := coredb.NewBufferPoolManager(poolSize, dm, coredb.WithBufferPoolLogger(logger.NewZap(zapLogger)))
//	    _ = bp
//	}
package logger
