package main

import (
	"log/slog"

	"github.com/soundprediction/recall/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("      Recall Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - gray")
	log.Info("Info message - standard color")
	log.Info("search completed - green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Completed searches are highlighted in green:")
	log.Info("search completed", "edges", 10, "nodes", 7, "duration", "42ms")
	log.Info("results streamed", "chunks", 17)

	log.Info("")
	log.Warn("query embedding failed", "falling_back_to", "bm25")
	log.Error("search channel failed", "kind", "edge", "method", "cosine_similarity")

	log.Info("")
	log.Info("Demo complete!")
}
