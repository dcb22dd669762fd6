package bench

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// WriteReport writes a benchmark result as indented JSON.
func WriteReport(w io.Writer, res *Result) error {
	data, err := sonic.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("bench: failed to encode report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("bench: failed to write report: %w", err)
	}
	return nil
}
