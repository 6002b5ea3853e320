package usecase

import (
	"fmt"
	"path/filepath"
)

// Layout names every artifact under the output root. All per-page paths are
// unique to their page.
type Layout struct {
	Root string
}

func (l Layout) ImagesDir() string { return filepath.Join(l.Root, "images") }
func (l Layout) AudioDir() string  { return filepath.Join(l.Root, "audio") }
func (l Layout) VideosDir() string { return filepath.Join(l.Root, "videos") }

func (l Layout) AudioPath(page int) string {
	return filepath.Join(l.AudioDir(), fmt.Sprintf("page_%03d.mp3", page))
}

func (l Layout) VideoPath(page int) string {
	return filepath.Join(l.VideosDir(), fmt.Sprintf("page_%03d_video.mp4", page))
}

func (l Layout) FinalVideo() string { return filepath.Join(l.Root, "final_video.mp4") }
func (l Layout) Metadata() string   { return filepath.Join(l.Root, "metadata.json") }

// Dirs lists the directories a run writes into.
func (l Layout) Dirs() []string {
	return []string{l.Root, l.ImagesDir(), l.AudioDir(), l.VideosDir()}
}
