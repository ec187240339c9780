package media

import (
	"path"
	"sort"
	"strings"
)

// Kind classifies a source file within the build inventory.
type Kind int

const (
	KindImage Kind = iota
	KindAudio
	KindSidecar
	KindAppendVideo
	KindOther
)

// Item is one source file. Name is the base filename used for ordering and
// attribution pairing; Path is wherever the bytes currently live (remote
// path before fetch, local path after).
type Item struct {
	Name string
	Path string
	Kind Kind
	Size int64
}

// Inventory is the partitioned, ordered media set a build plans against.
type Inventory struct {
	Images []Item
	Tracks []Item
	// Attributions maps a track name to the name of its .md sidecar, when
	// one with a matching base name exists. The sidecar's text is read by
	// the executor after fetch.
	Attributions map[string]string
	Append       *Item
}

var kindByExtension = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".mp3":  KindAudio,
	".md":   KindSidecar,
	".mp4":  KindAppendVideo,
	".mkv":  KindAppendVideo,
	".mov":  KindAppendVideo,
}

// Classify returns the inventory kind for a filename based on its extension.
func Classify(name string) Kind {
	ext := strings.ToLower(path.Ext(name))
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return KindOther
}

// SortItems orders items in place using the slideshow ordering key:
// names with a numeric prefix sort ascending by that number, all other
// names follow in lexicographic order. The sort is deterministic for any
// input permutation.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i].Name, items[j].Name)
	})
}

// Less compares two filenames under the slideshow ordering key.
func Less(a, b string) bool {
	aNum, aOK := numericPrefix(a)
	bNum, bOK := numericPrefix(b)
	switch {
	case aOK && bOK:
		if aNum != bNum {
			return aNum < bNum
		}
		return a < b
	case aOK:
		return true
	case bOK:
		return false
	default:
		return a < b
	}
}

func numericPrefix(name string) (int, bool) {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	// Cap the digits considered so absurd prefixes cannot overflow.
	if end > 9 {
		end = 9
	}
	value := 0
	for i := 0; i < end; i++ {
		value = value*10 + int(name[i]-'0')
	}
	return value, true
}

// Partition splits a raw listing into the ordered build inventory. Images
// are sorted with the ordering key, audio tracks keep listing order, and
// .md sidecars are paired with tracks sharing their base name.
func Partition(items []Item) Inventory {
	inv := Inventory{Attributions: make(map[string]string)}
	sidecars := make(map[string]string, 4)

	for _, item := range items {
		switch item.Kind {
		case KindImage:
			inv.Images = append(inv.Images, item)
		case KindAudio:
			inv.Tracks = append(inv.Tracks, item)
		case KindSidecar:
			sidecars[baseName(item.Name)] = item.Name
		}
	}

	SortItems(inv.Images)

	for _, track := range inv.Tracks {
		if sidecar, ok := sidecars[baseName(track.Name)]; ok {
			inv.Attributions[track.Name] = sidecar
		}
	}
	return inv
}

func baseName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}
