// Package widgets provides custom Fyne widgets for the SongScope client.
package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// VideoThumbnail shows the current video's still image and acts as a
// large play/pause target. Taps are ignored while disabled; the secondary
// tap (context menu) always fires.
type VideoThumbnail struct {
	widget.DisableableWidget

	OnTapped          func()
	OnTappedSecondary func(*fyne.PointEvent)

	image *canvas.Image
}

// NewVideoThumbnail returns a disabled thumbnail showing the placeholder
// icon at the given minimum size.
func NewVideoThumbnail(minSize fyne.Size) *VideoThumbnail {
	img := canvas.NewImageFromResource(theme.MediaVideoIcon())
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(minSize)

	t := &VideoThumbnail{image: img}
	t.ExtendBaseWidget(t)
	t.Disable()
	return t
}

// SetImage swaps in a decoded still.
func (t *VideoThumbnail) SetImage(img image.Image) {
	t.image.Image = img
	t.image.Resource = nil
	t.image.Refresh()
}

// ShowPlaceholder restores the generic video icon.
func (t *VideoThumbnail) ShowPlaceholder() {
	t.image.Image = nil
	t.image.Resource = theme.MediaVideoIcon()
	t.image.Refresh()
}

// HasImage reports whether a decoded still is shown.
func (t *VideoThumbnail) HasImage() bool {
	return t.image.Image != nil
}

func (t *VideoThumbnail) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.image)
}

func (t *VideoThumbnail) Tapped(*fyne.PointEvent) {
	if t.Disabled() || t.OnTapped == nil {
		return
	}
	t.OnTapped()
}

func (t *VideoThumbnail) TappedSecondary(pe *fyne.PointEvent) {
	if t.OnTappedSecondary != nil {
		t.OnTappedSecondary(pe)
	}
}

func (t *VideoThumbnail) Cursor() desktop.Cursor {
	if t.Disabled() {
		return desktop.DefaultCursor
	}
	return desktop.PointerCursor
}

var (
	_ fyne.Tappable          = (*VideoThumbnail)(nil)
	_ fyne.SecondaryTappable = (*VideoThumbnail)(nil)
	_ desktop.Cursorable     = (*VideoThumbnail)(nil)
	_ fyne.Disableable       = (*VideoThumbnail)(nil)
)
