package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// makeBlankCursor builds a fully transparent 1x1 cursor, the portable
// way to hide the pointer on a bare X11 connection (no XFixes
// HideCursor on every server, but every server supports CreateCursor
// with an all-zero source/mask pair).
func makeBlankCursor(conn *xgb.Conn, root xproto.Window) (xproto.Cursor, error) {
	pixmapID, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreatePixmapChecked(conn, 1, pixmapID, xproto.Drawable(root), 1, 1).Check(); err != nil {
		return 0, err
	}
	defer xproto.FreePixmap(conn, pixmapID)

	gcID, err := xproto.NewGcontextId(conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreateGCChecked(conn, gcID, xproto.Drawable(pixmapID), 0, nil).Check(); err != nil {
		return 0, err
	}
	defer xproto.FreeGC(conn, gcID)

	if err := xproto.PolyFillRectangleChecked(conn, xproto.Drawable(pixmapID), gcID,
		[]xproto.Rectangle{{X: 0, Y: 0, Width: 1, Height: 1}}).Check(); err != nil {
		return 0, err
	}

	cursorID, err := xproto.NewCursorId(conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreateCursorChecked(conn, cursorID, pixmapID, pixmapID,
		0, 0, 0, 0, 0, 0, 0, 0).Check(); err != nil {
		return 0, err
	}
	return cursorID, nil
}
