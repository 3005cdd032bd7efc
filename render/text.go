package render

import (
	"log/slog"

	"github.com/tsawler/notula/session"
)

// TextBlock draws a positioned text block into the page window. Like other
// sized media, the block is included only when its whole vertical extent
// fits inside the window.
func (r *Renderer) TextBlock(block *session.TextBlock) error {
	if !r.window.ContainsExtent(block.Y, block.Height) {
		return nil
	}
	r.runs(block.Store, block.X, block.Y-r.window.Start)
	return nil
}

// TextStore draws the whole-document text store, whose origin is the top of
// the document canvas. The backend clips whatever falls outside the page.
func (r *Renderer) TextStore(store session.TextStore) error {
	r.runs(store, 0, -r.window.Start)
	return nil
}

// runs draws a store's sub-ranges as sequential stacked blocks: each run is
// laid out at the running vertical cursor, which then advances by the drawn
// block's height. Runs are deliberately not reflowed into one paragraph.
func (r *Renderer) runs(store session.TextStore, x, y float64) {
	cursor := y
	for i, run := range store.Runs {
		text := run.Text(store.Backing)
		if text == "" {
			continue
		}

		style := TextStyle{
			FontName: run.FontName,
			Size:     run.FontSize,
			Color:    run.Color,
		}
		height, err := r.backend.DrawText(text, style, x, cursor)
		if err != nil {
			r.log.Warn("text run not drawable, omitting",
				slog.Int("run", i), slog.Any("err", err))
			continue
		}
		cursor += height
	}
}
