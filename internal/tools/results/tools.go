package results

import (
	"github.com/dlemos/amekit/internal/router"
	"github.com/dlemos/amekit/internal/tools"
)

func GetTools(r *router.Router) []tools.Tool {
	return []tools.Tool{
		NewLoadTool(r),
		NewPlotExportTool(),
		NewToCSVTool(),
	}
}
