package fyne

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/songscope/res"
)

// showErrorDialog shows an error with its title in the dialog header.
func showErrorDialog(window fyne.Window, title, message string) {
	label := widget.NewLabel(message)
	label.Wrapping = fyne.TextWrapWord
	label.Importance = widget.DangerImportance

	d := dialog.NewCustom(title, "OK", label, window)
	d.Resize(fyne.NewSize(380, 160))
	d.Show()
}

// showAboutDialog shows the about box rendered from res.AboutContent.
func showAboutDialog(window fyne.Window, version string) {
	content := widget.NewRichTextFromMarkdown(res.AboutContent)
	content.Wrapping = fyne.TextWrapWord

	title := APPNAME
	if version != "" {
		title += " " + version
	}
	d := dialog.NewCustom(title, "Close", content, window)
	d.Resize(fyne.NewSize(420, 320))
	d.Show()
}

// confirmResetPreferences asks before clearing saved preferences.
func confirmResetPreferences(window fyne.Window, onConfirm func()) {
	dialog.ShowConfirm("Reset Preferences",
		"Restore the default volume and loop mode and forget the last video?",
		func(ok bool) {
			if ok && onConfirm != nil {
				onConfirm()
			}
		}, window)
}
