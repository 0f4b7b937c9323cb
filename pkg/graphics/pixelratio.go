package graphics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/menta2k/page-annotator/pkg/driver"
)

// DevicePixelRatioScript reads the ratio between CSS and device pixels
const DevicePixelRatioScript = "return window.devicePixelRatio;"

// DefaultDevicePixelRatio is used when the browser does not report a ratio
const DefaultDevicePixelRatio = 1.0

// GetDevicePixelRatio asks the browser for its device pixel ratio, needed to
// map page coordinates onto high density screenshots such as the ones taken
// on macOS. A missing value is not an error and yields DefaultDevicePixelRatio.
func GetDevicePixelRatio(ctx context.Context, exec driver.ScriptExecutor) (float64, error) {
	v, err := exec.ExecuteScript(ctx, DevicePixelRatioScript)
	if err != nil {
		return 0, fmt.Errorf("failed to read device pixel ratio: %w", err)
	}

	var ratio float64
	switch n := v.(type) {
	case float64:
		ratio = n
	case float32:
		ratio = float64(n)
	case int:
		ratio = float64(n)
	case int64:
		ratio = float64(n)
	case json.Number:
		ratio, _ = n.Float64()
	}

	if ratio == 0 {
		return DefaultDevicePixelRatio, nil
	}
	return ratio, nil
}
