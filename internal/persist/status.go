package persist

import (
	"fmt"
	"io"

	"github.com/huangsam/enrollcast/schema"
)

// PrintStoreStatus prints forecast store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Records: %d\n", status.TotalRecords)
	if status.TotalRecords == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "Actual Rows: %d\n", status.ActualRows)
	_, _ = fmt.Fprintf(w, "Forecast Rows: %d\n", status.ForecastRows)
	_, _ = fmt.Fprintf(w, "Programs: %d\n", status.Programs)
	_, _ = fmt.Fprintf(w, "Years: %d-%d\n", status.MinYear, status.MaxYear)
	_, _ = fmt.Fprintf(w, "Last Updated: %s\n", status.LastUpdated.Format("2006-01-02 15:04:05"))
}
