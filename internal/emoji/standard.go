package emoji

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

// The built-in table ships with the binary. It is the Slack standard
// name -> Unicode mapping and never changes at runtime, so it is loaded
// once and shared read-only across all workspaces.

//go:embed standard_emoji.json
var standardFS embed.FS

var (
	standardOnce sync.Once
	standardMap  map[string]string
	standardErr  error
)

func standardTable() (map[string]string, error) {
	standardOnce.Do(func() {
		data, err := standardFS.ReadFile("standard_emoji.json")
		if err != nil {
			standardErr = fmt.Errorf("failed to read standard emoji table: %w", err)
			return
		}
		if err := json.Unmarshal(data, &standardMap); err != nil {
			standardErr = fmt.Errorf("failed to parse standard emoji table: %w", err)
			return
		}
	})
	return standardMap, standardErr
}
