// Command herdctl is the operator CLI: schema migrations, offline census
// ingestion and development tokens.
package main

import (
	"os"

	"herdsnap/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.Get().Fatalf("herdctl: %v", err)
	}
}
