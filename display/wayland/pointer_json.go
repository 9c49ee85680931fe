package wayland

import (
	"encoding/json"

	"github.com/tx2tx/tx2tx/types"
)

// parsePointerJSON decodes the "[x,y,mask]" array GNOME Shell's Eval
// returns for JSON.stringify(global.get_pointer()); decoding into a
// 2-element array keeps x and y and discards the mask.
func parsePointerJSON(s string) (types.Position, error) {
	var coords [2]int
	if err := json.Unmarshal([]byte(s), &coords); err != nil {
		return types.Position{}, &QueryError{Op: "parse pointer json", Err: err}
	}
	return types.NewPosition(coords[0], coords[1]), nil
}
