package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVWriter writes one row per processed snapshot.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter writes the header and returns the writer.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	c := &CSVWriter{w: csv.NewWriter(w)}
	header := []string{"id", "yaw", "roll", "camera_height", "light_energy", "visible_objects"}
	if err := c.w.Write(header); err != nil {
		return nil, fmt.Errorf("writing sweep csv header: %w", err)
	}
	return c, nil
}

// WriteRow records a snapshot and how many objects were annotated in it.
func (c *CSVWriter) WriteRow(s Snapshot, visible int) error {
	row := []string{
		s.ID,
		formatFloat(s.Yaw),
		formatFloat(s.Roll),
		formatFloat(s.CameraHeight),
		formatFloat(s.LightEnergy),
		strconv.Itoa(visible),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("writing sweep csv row: %w", err)
	}
	return nil
}

// Flush flushes buffered rows and reports any write error.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
