package spine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
)

// AtlasFilter is a texture filter as written in a .atlas page header.
type AtlasFilter uint8

const (
	FilterNearest AtlasFilter = iota
	FilterLinear
	FilterMipMap
	FilterMipMapNearestNearest
	FilterMipMapLinearNearest
	FilterMipMapNearestLinear
	FilterMipMapLinearLinear
)

var atlasFilterNames = [...]string{
	FilterNearest:              "Nearest",
	FilterLinear:               "Linear",
	FilterMipMap:               "MipMap",
	FilterMipMapNearestNearest: "MipMapNearestNearest",
	FilterMipMapLinearNearest:  "MipMapLinearNearest",
	FilterMipMapNearestLinear:  "MipMapNearestLinear",
	FilterMipMapLinearLinear:   "MipMapLinearLinear",
}

func (f AtlasFilter) String() string {
	if int(f) < len(atlasFilterNames) {
		return atlasFilterNames[f]
	}
	return fmt.Sprintf("AtlasFilter(%d)", uint8(f))
}

// AtlasWrap is a texture wrap mode of an atlas page.
type AtlasWrap uint8

const (
	WrapClampToEdge AtlasWrap = iota
	WrapMirroredRepeat
	WrapRepeat
)

func (w AtlasWrap) String() string {
	switch w {
	case WrapClampToEdge:
		return "ClampToEdge"
	case WrapMirroredRepeat:
		return "MirroredRepeat"
	case WrapRepeat:
		return "Repeat"
	default:
		return fmt.Sprintf("AtlasWrap(%d)", uint8(w))
	}
}

// AtlasPage is the header of one page (one texture image) of an atlas.
type AtlasPage struct {
	Name      string
	Width     int
	Height    int
	Format    string
	MinFilter AtlasFilter
	MagFilter AtlasFilter
	UWrap     AtlasWrap
	VWrap     AtlasWrap
	PMA       bool
}

// PremultipliedAlpha reports whether any page stores premultiplied alpha.
// A skeleton is drawn with the premultiplied blend states if so.
func PremultipliedAlpha(pages []AtlasPage) bool {
	for i := range pages {
		if pages[i].PMA {
			return true
		}
	}
	return false
}

// Sampler is the sampling configuration for a texture.
type Sampler struct {
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
}

// DefaultSampler clamps to edge and filters linearly.
func DefaultSampler() Sampler {
	return Sampler{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	}
}

// SamplerFor converts an atlas page's filters and wraps to a Sampler.
// Mipmapped filters fall back to linear filtering since pages are uploaded
// without mip levels.
func SamplerFor(page AtlasPage) Sampler {
	return Sampler{
		AddressModeU: convertWrap(page.UWrap),
		AddressModeV: convertWrap(page.VWrap),
		MagFilter:    convertFilter(page.MagFilter),
		MinFilter:    convertFilter(page.MinFilter),
	}
}

func convertFilter(f AtlasFilter) gputypes.FilterMode {
	switch f {
	case FilterNearest:
		return gputypes.FilterModeNearest
	case FilterLinear:
		return gputypes.FilterModeLinear
	default:
		Logger().Warn("spine: atlas filter not supported, using linear", "filter", f.String())
		return gputypes.FilterModeLinear
	}
}

func convertWrap(w AtlasWrap) gputypes.AddressMode {
	switch w {
	case WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	case WrapClampToEdge:
		return gputypes.AddressModeClampToEdge
	case WrapRepeat:
		return gputypes.AddressModeRepeat
	default:
		Logger().Warn("spine: atlas wrap not supported, clamping to edge", "wrap", w.String())
		return gputypes.AddressModeClampToEdge
	}
}

// ParseAtlas reads the page headers of a Spine .atlas file. Both the 3.x
// and 4.x layouts are accepted. Region entries are skipped.
func ParseAtlas(r io.Reader) ([]AtlasPage, error) {
	var (
		pages  []AtlasPage
		page   *AtlasPage
		inPage bool // reading page header fields
		lineNo int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			page, inPage = nil, false
			continue
		}

		key, value, hasColon := strings.Cut(line, ":")
		switch {
		case page == nil && !hasColon:
			pages = append(pages, AtlasPage{Name: line})
			page, inPage = &pages[len(pages)-1], true
		case page == nil:
			return nil, fmt.Errorf("%w: line %d: field %q before page name", ErrMalformedAtlas, lineNo, key)
		case !hasColon:
			// Region name; everything up to the next blank line belongs to regions.
			inPage = false
		case inPage:
			if err := page.setField(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedAtlas, lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read atlas: %w", err)
	}
	return pages, nil
}

func (p *AtlasPage) setField(key, value string) error {
	switch key {
	case "size":
		w, h, err := parsePair(value)
		if err != nil {
			return fmt.Errorf("size: %w", err)
		}
		p.Width, p.Height = w, h
	case "format":
		p.Format = value
	case "filter":
		minName, magName, ok := strings.Cut(value, ",")
		if !ok {
			magName = minName
		}
		minF, err := parseFilter(strings.TrimSpace(minName))
		if err != nil {
			return err
		}
		magF, err := parseFilter(strings.TrimSpace(magName))
		if err != nil {
			return err
		}
		p.MinFilter, p.MagFilter = minF, magF
	case "repeat":
		p.UWrap, p.VWrap = WrapClampToEdge, WrapClampToEdge
		switch value {
		case "x":
			p.UWrap = WrapRepeat
		case "y":
			p.VWrap = WrapRepeat
		case "xy":
			p.UWrap, p.VWrap = WrapRepeat, WrapRepeat
		}
	case "pma":
		pma, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("pma: %w", err)
		}
		p.PMA = pma
	}
	// Unknown keys (scale, ...) are ignored.
	return nil
}

func parseFilter(name string) (AtlasFilter, error) {
	for i, n := range atlasFilterNames {
		if strings.EqualFold(n, name) {
			return AtlasFilter(i), nil
		}
	}
	return FilterLinear, fmt.Errorf("unknown filter %q", name)
}

func parsePair(value string) (int, int, error) {
	a, b, ok := strings.Cut(value, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected two values, got %q", value)
	}
	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
