// Manual check of the geom.Line record.
package main

import (
	"fmt"
	"log/slog"

	"github.com/dlemos/amekit/internal/geom"
	"github.com/dlemos/amekit/internal/logger"
)

func main() {
	cfg := logger.DefaultConfig()
	cfg.Level = slog.LevelDebug
	logger.Init(cfg)

	line := geom.NewLine(10.0, 20.0)

	fmt.Printf("Length of line : %g\n", line.Length())

	line.SetLength(6.0)
	fmt.Printf("Length of line : %g\n", line.Length())
}
