package api

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}
