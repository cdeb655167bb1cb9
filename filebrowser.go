package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/zeozeozeo/modpcm/pkg/mod"
)

var fileStyle = tcell.StyleDefault.Background(sampleBgColour).Foreground(sampleFgColour)
var fileHighlightStyle = tcell.StyleDefault.Background(sampleHighlightBgColour).Foreground(sampleHighlightFgColour).Bold(true)
var modRegexp = regexp.MustCompile(`(?i)(^mod\..+|\.mod)$`)

var errNoSelection = errors.New("no module selected")

type file struct {
	name       string
	isDir      bool
	size       int64
	moduleName string
}

// moduleTitle returns the song title stored in a module, or "" when the
// file does not parse.
func moduleTitle(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	format := mod.DetectFormat(data)
	song, err := mod.Parse(data, format.NumChannels, format.NumSamples)
	if err != nil {
		return ""
	}
	return song.Name
}

func parseDir(path string) ([]file, error) {
	var matchingFiles []file

	if filepath.Dir(path) != path {
		parentDir := file{
			name:  "../",
			isDir: true,
		}

		matchingFiles = append(matchingFiles, parentDir)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if e.IsDir() {
			matchingFiles = append(matchingFiles, file{
				name:  fmt.Sprintf("%s/", e.Name()),
				isDir: true,
			})
			continue
		}
		name := e.Name()
		if !modRegexp.MatchString(name) || name == "go.mod" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		matchingFiles = append(matchingFiles, file{
			name:       name,
			size:       info.Size(),
			moduleName: moduleTitle(filepath.Join(path, name)),
		})
	}

	return matchingFiles, nil
}

type browserState struct {
	currentDir string
	currentIdx int
	entries    []file
}

func (st *browserState) changeDir(dir string) error {
	dir, err := filepath.Abs(filepath.Join(st.currentDir, dir))
	if err != nil {
		return err
	}
	entries, err := parseDir(dir)
	if err != nil {
		return err
	}
	st.currentDir = dir
	st.currentIdx = 0
	st.entries = entries
	return nil
}

func (st *browserState) draw(s tcell.Screen) {
	drawBox(s, 0, 0, 130, 38)
	drawText(s, 2, 0, 100, 1, fileStyle, st.currentDir)

	// Scroll so the selection stays on screen.
	first := 0
	if st.currentIdx > 35 {
		first = st.currentIdx - 35
	}

	yPos := 1
	for idx := first; idx < len(st.entries) && yPos < 38; idx++ {
		f := st.entries[idx]
		xPos := 1
		style := fileStyle
		if idx == st.currentIdx {
			style = fileHighlightStyle
		}
		drawText(s, xPos, yPos, 32, 1, style, fmt.Sprintf("%-31s", f.name))
		xPos += 32

		if f.isDir {
			drawText(s, xPos, yPos, 9, 1, style, "<dir>")
		} else {
			drawText(s, xPos, yPos, 9, 1, style, fmt.Sprintf("%-8d", f.size))
			xPos += 9
			drawText(s, xPos, yPos, 20, 1, style, f.moduleName)
		}
		yPos++
	}
	s.Show()
}

// browse shows a directory listing of modules and returns the path of
// the chosen file.
func browse(dir string) (string, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return "", err
	}
	if err := s.Init(); err != nil {
		return "", err
	}
	defer s.Fini()

	defStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite)
	s.SetStyle(defStyle)
	s.Clear()

	st := &browserState{}
	if err := st.changeDir(dir); err != nil {
		return "", err
	}

	for {
		st.draw(s)

		switch ev := s.PollEvent().(type) {
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventKey:
			switch key := ev.Key(); key {
			case tcell.KeyDown:
				if st.currentIdx < len(st.entries)-1 {
					st.currentIdx++
				} else {
					st.currentIdx = 0
				}
			case tcell.KeyUp:
				if st.currentIdx > 0 {
					st.currentIdx--
				} else {
					st.currentIdx = len(st.entries) - 1
				}
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return "", errNoSelection
			case tcell.KeyEnter:
				if len(st.entries) == 0 {
					continue
				}
				f := st.entries[st.currentIdx]
				if !f.isDir {
					return filepath.Join(st.currentDir, f.name), nil
				}
				if err := st.changeDir(f.name); err != nil {
					return "", err
				}
				s.Clear()
			case tcell.KeyHome:
				st.currentIdx = 0
			case tcell.KeyEnd:
				st.currentIdx = len(st.entries) - 1
			}
		}
	}
}
