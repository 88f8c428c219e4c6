// Package completion decides when a slide counts as done without an
// explicit submission.
package completion

import (
	"sort"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// VideoThreshold is the fraction of a video that must be played before its
// slide completes.
const VideoThreshold = 0.8

// Signal is what the player reports about the active slide.
type Signal struct {
	Viewed        bool    // the slide became the active one
	VideoFraction float64 // playback progress in [0,1], reported by the player
}

// Satisfied reports whether s is done given sig. Assessment and Activity
// slides only complete through submission or reveal.
func Satisfied(s slide.Slide, sig Signal) bool {
	switch v := s.(type) {
	case *slide.Content:
		return contentSatisfied(v, sig)
	case *slide.Assessment, *slide.Activity:
		return false
	default:
		return false
	}
}

func contentSatisfied(c *slide.Content, sig Signal) bool {
	item, ok := primary(c)
	if !ok {
		return sig.Viewed
	}
	switch item.Type {
	case slide.ContentVideo:
		return sig.VideoFraction > VideoThreshold
	case slide.ContentActivity:
		return false
	default:
		return sig.Viewed
	}
}

// primary returns the lowest-ordered content item.
func primary(c *slide.Content) (slide.ContentItem, bool) {
	if len(c.Items) == 0 {
		return slide.ContentItem{}, false
	}
	items := append([]slide.ContentItem(nil), c.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items[0], true
}
