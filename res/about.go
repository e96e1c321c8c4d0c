package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A desktop companion for music videos, built with Go and Fyne.

**Features:**
- Paste a YouTube link or search for music videos
- Play, pause, seek, loop and mute in an embedded player
- Identify the song and artist from the video title
- Trivia about the song from an AI model
- Lyrics from Genius, with lyrics.ovh as fallback

**Shortcuts:**
- Alt+Up / Alt+Down: volume
- Alt+Left / Alt+Right: skip 5 seconds
- Alt+Space: play or pause
`
