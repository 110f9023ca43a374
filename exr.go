package imgproc

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/DeanoC/ltngt.image-process/exr"
	"github.com/DeanoC/ltngt.image-process/image"
	"github.com/DeanoC/ltngt.image-process/log"
	"github.com/DeanoC/ltngt.image-process/pixfmt"
	"github.com/DeanoC/ltngt.image-process/vfile"
)

// LoadEXR decodes a scanline EXR file into a chain with one record per
// layer. Channels group into layers by the prefix before the last dot
// of their name; the suffix letter selects the component slot. Each
// record carries a layer-name extension.
func LoadEXR(v vfile.VFile) (*image.Image, error) {
	if _, err := exr.ParseVersion(v); err != nil {
		return nil, err
	}
	hdr, err := exr.ParseHeader(v)
	if err != nil {
		return nil, err
	}
	decoded, err := exr.DecodeImage(v, hdr)
	if err != nil {
		return nil, err
	}

	layers := demuxLayers(decoded)
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no usable layers", exr.ErrBadImage)
	}

	var chain *image.Image
	for _, layer := range layers {
		img, err := layerImage(decoded.DataWindow, layer)
		if err != nil {
			return nil, err
		}
		chain, err = appendRecord(chain, img)
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// exrLayer collects the channels of one layer by component slot. The
// pixel type of the first accepted channel binds the whole layer.
type exrLayer struct {
	name  string
	typ   exr.PixelType
	slots [4]*exr.ChannelData
}

// componentSlot maps an EXR channel letter to its canonical component.
func componentSlot(letter string) (int, bool) {
	switch letter {
	case "R", "X", "Z":
		return 0, true
	case "G":
		return 1, true
	case "B":
		return 2, true
	case "A":
		return 3, true
	}
	return 0, false
}

func splitChannelName(name string) (layer, letter string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// demuxLayers groups decoded channels into layers, keeping first-seen
// layer order. Per-channel anomalies are logged and skipped rather than
// failing the load.
func demuxLayers(decoded *exr.Image) []*exrLayer {
	var layers []*exrLayer
	byName := make(map[string]*exrLayer)
	for i := range decoded.Channels {
		ch := &decoded.Channels[i]
		layerName, letter := splitChannelName(ch.Name)
		slot, ok := componentSlot(letter)
		if !ok {
			log.Warnf("skipping channel %q: unknown letter %q", ch.Name, letter)
			continue
		}
		layer := byName[layerName]
		if layer == nil {
			layer = &exrLayer{name: layerName, typ: ch.Type}
			byName[layerName] = layer
			layers = append(layers, layer)
		}
		if ch.Type != layer.typ {
			log.Warnf("dropping channel %q: layer %q mixes %s with %s",
				ch.Name, layerName, layer.typ, ch.Type)
			continue
		}
		if layer.slots[slot] != nil {
			log.Warnf("dropping channel %q: component %d already taken", ch.Name, slot)
			continue
		}
		layer.slots[slot] = ch
	}
	return layers
}

// layerFormat picks the container format for a component count and
// sample encoding.
func layerFormat(t exr.PixelType, comps int) pixfmt.Format {
	switch t {
	case exr.PixelTypeHalf:
		switch comps {
		case 1:
			return pixfmt.R16F
		case 2:
			return pixfmt.RG16F
		case 3:
			return pixfmt.RGB16F
		case 4:
			return pixfmt.RGBA16F
		}
	case exr.PixelTypeFloat:
		switch comps {
		case 1:
			return pixfmt.R32F
		case 2:
			return pixfmt.RG32F
		case 3:
			return pixfmt.RGB32F
		case 4:
			return pixfmt.RGBA32F
		}
	case exr.PixelTypeUint:
		switch comps {
		case 1:
			return pixfmt.R32U
		case 2:
			return pixfmt.RG32U
		case 3:
			return pixfmt.RGB32U
		case 4:
			return pixfmt.RGBA32U
		}
	}
	return pixfmt.Undefined
}

// layerImage packs one layer's planar channels into an interleaved
// record tagged with the layer name.
func layerImage(dw exr.Box2i, layer *exrLayer) (*image.Image, error) {
	var order []*exr.ChannelData
	for _, ch := range layer.slots {
		if ch != nil {
			order = append(order, ch)
		}
	}

	format := layerFormat(layer.typ, len(order))
	if !format.Defined() {
		return nil, fmt.Errorf("%w: layer %q has no format for %d %s channels",
			exr.ErrBadImage, layer.name, len(order), layer.typ)
	}

	width, err := u32FromInt(dw.Width())
	if err != nil {
		return nil, err
	}
	height, err := u32FromInt(dw.Height())
	if err != nil {
		return nil, err
	}

	cfg := image.Config{
		Width:  width,
		Height: height,
		Depth:  1,
		Slices: 1,
		Format: format,
		Usage:  image.UsageTexture,
	}
	img, err := image.NewWithExtensions(cfg, []image.Extension{image.NewLayerExtension(layer.name)})
	if err != nil {
		return nil, err
	}

	px := img.Data()
	npix := dw.Width() * dw.Height()
	comps := len(order)
	switch layer.typ {
	case exr.PixelTypeHalf:
		for i := 0; i < npix; i++ {
			off := i * comps * 2
			for c, ch := range order {
				binary.LittleEndian.PutUint16(px[off+c*2:], ch.Halfs[i])
			}
		}
	case exr.PixelTypeFloat:
		for i := 0; i < npix; i++ {
			off := i * comps * 4
			for c, ch := range order {
				binary.LittleEndian.PutUint32(px[off+c*4:], math.Float32bits(ch.Floats[i]))
			}
		}
	case exr.PixelTypeUint:
		for i := 0; i < npix; i++ {
			off := i * comps * 4
			for c, ch := range order {
				binary.LittleEndian.PutUint32(px[off+c*4:], ch.Uints[i])
			}
		}
	}
	return img, nil
}
