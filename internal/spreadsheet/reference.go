package spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
)

// Reference points the main application at the created spreadsheet
type Reference struct {
	ID    string `json:"spreadsheet_id"`
	URL   string `json:"spreadsheet_url"`
	Title string `json:"-"`
}

// SaveReference writes ref to path as indented JSON
func SaveReference(path string, ref *Reference) error {
	payload, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode spreadsheet config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to write spreadsheet config %s: %w", path, err)
	}

	return nil
}
