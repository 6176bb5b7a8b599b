package util

import "github.com/annel0/mmo-game/internal/vec"

// Square3x3 returns the nine chunk coordinates of center's Chebyshev-radius-1
// neighborhood, the "3x3 neighborhood" the chunk lifecycle manager retains
// internally for every user hold (§4.3).
func Square3x3(center vec.Vec2) []vec.Vec2 {
	out := make([]vec.Vec2, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			out = append(out, vec.Vec2{X: center.X + dx, Y: center.Y + dy})
		}
	}
	return out
}

// SquareWindow returns every chunk coordinate within radius chunks of
// center (inclusive), the vision subscription window shape (§4.5).
func SquareWindow(center vec.Vec2, radius int) []vec.Vec2 {
	out := make([]vec.Vec2, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			out = append(out, vec.Vec2{X: center.X + dx, Y: center.Y + dy})
		}
	}
	return out
}

// DiffWindows splits the move from an old square window to a new one into
// the chunks that left and the chunks that newly entered, without
// reporting chunks present in both (S5).
func DiffWindows(oldWindow, newWindow []vec.Vec2) (left, entered []vec.Vec2) {
	oldSet := make(map[vec.Vec2]struct{}, len(oldWindow))
	for _, c := range oldWindow {
		oldSet[c] = struct{}{}
	}
	newSet := make(map[vec.Vec2]struct{}, len(newWindow))
	for _, c := range newWindow {
		newSet[c] = struct{}{}
	}
	for _, c := range oldWindow {
		if _, ok := newSet[c]; !ok {
			left = append(left, c)
		}
	}
	for _, c := range newWindow {
		if _, ok := oldSet[c]; !ok {
			entered = append(entered, c)
		}
	}
	return left, entered
}
