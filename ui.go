package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// drawBox fills the rectangle and draws a rounded border around it.
func drawBox(s tcell.Screen, x1, y1, x2, y2 int) {
	style := tcell.StyleDefault.Background(boxBgColour).Foreground(boxFgColour)

	for row := y1; row <= y2; row++ {
		for col := x1; col <= x2; col++ {
			c := ' '
			switch {
			case row == y1 || row == y2:
				c = tcell.RuneHLine
			case col == x1 || col == x2:
				c = tcell.RuneVLine
			}
			s.SetContent(col, row, c, nil, style)
		}
	}

	// Only draw corners if necessary
	if y1 != y2 && x1 != x2 {
		s.SetContent(x1, y1, '╭', nil, style)
		s.SetContent(x2, y1, '╮', nil, style)
		s.SetContent(x1, y2, '╰', nil, style)
		s.SetContent(x2, y2, '╯', nil, style)
	}
}

// drawText writes text into a width x height cell area, wrapping at the
// right edge and padding what is left with spaces.
func drawText(s tcell.Screen, x, y, width, height int, style tcell.Style, text string) {
	xPos, yPos := x, y
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if xPos+w > x+width {
			yPos++
			xPos = x
		}
		if yPos >= y+height {
			return
		}
		s.SetContent(xPos, yPos, r, nil, style)
		xPos += w
	}

	for ; yPos < y+height; yPos++ {
		for ; xPos < x+width; xPos++ {
			s.SetContent(xPos, yPos, ' ', nil, style)
		}
		xPos = x
	}
}
