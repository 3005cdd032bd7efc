package session

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/notula/core"
	"github.com/tsawler/notula/graph"
)

// Reverse-engineered field names for media objects.
const (
	mediaObjectsKey = "mediaObjects"
	nsObjectsKey    = "NS.objects"

	contentOriginKey = "documentContentOrigin"
	unscaledSizeKey  = "unscaledContentSize"

	imagePathKey    = "imageRelativePath"
	imageIsJPEGKey  = "imageIsJPEG"
	imageMissingKey = "imageIsMissing"
	richTextKey     = "richText"

	imageClass     = "ImageMediaObject"
	textBlockClass = "TextBlockMediaObject"
)

// Frame is a media object's placement on the shared document canvas:
// origin plus unscaled size, both decoded from "{a, b}" tuples.
type Frame struct {
	X, Y          float64
	Width, Height float64
}

// Media is an object embedded in the document, classified by its archived
// class tag. The variant set is closed: tags this package does not know
// decode as *Unknown, are reported once and render nothing, so a new class
// in a future document version degrades instead of crashing the decode.
type Media interface {
	isMedia()
}

// Image is an embedded raster image stored as an archive member.
type Image struct {
	Frame
	Path    string // member path relative to the archive root
	JPEG    bool   // JPEG when true, PNG otherwise
	Missing bool   // the source application lost the asset; draw nothing
}

func (*Image) isMedia() {}

// TextBlock is a positioned block of styled text runs.
type TextBlock struct {
	Frame
	Store TextStore
}

func (*TextBlock) isMedia() {}

// Unknown is a media object whose class tag is not recognized.
type Unknown struct {
	Class string
}

func (*Unknown) isMedia() {}

// MediaObjects decodes the document's media object list. A document without
// the list has no media; a single undecodable object is logged and skipped
// so its siblings still render.
func (s *Session) MediaObjects() ([]Media, error) {
	layout := s.g.LayoutInfo()
	if layout == nil {
		return nil, nil
	}

	list, err := s.g.ResolveArray(layout,
		graph.Key(mediaObjectsKey), graph.Key(nsObjectsKey))
	if err != nil {
		s.log.Debug("media object list not resolvable",
			slog.Any("err", err))
		return nil, nil
	}

	var objects []Media
	for i := 0; i < list.Len(); i++ {
		obj, err := s.g.Resolve(list.Get(i))
		if err != nil {
			s.log.Warn("media object not resolvable, skipping",
				slog.Int("object", i), slog.Any("err", err))
			continue
		}

		class, err := s.g.ClassName(obj)
		if err != nil {
			s.log.Warn("media object has no class tag, skipping",
				slog.Int("object", i), slog.Any("err", err))
			continue
		}

		switch class {
		case imageClass:
			image, err := s.imageObject(obj)
			if err != nil {
				s.log.Warn("image object not decodable, skipping",
					slog.Int("object", i), slog.Any("err", err))
				continue
			}
			objects = append(objects, image)
		case textBlockClass:
			block, err := s.textBlockObject(obj)
			if err != nil {
				s.log.Warn("text block not decodable, skipping",
					slog.Int("object", i), slog.Any("err", err))
				continue
			}
			objects = append(objects, block)
		default:
			s.log.Warn("unknown media object class, please report",
				slog.Int("object", i), slog.String("class", class))
			objects = append(objects, &Unknown{Class: class})
		}
	}
	return objects, nil
}

// frame decodes a media object's origin and unscaled size tuples.
func (s *Session) frame(obj core.Node) (Frame, error) {
	originStr, err := s.g.ResolveString(obj, graph.Key(contentOriginKey))
	if err != nil {
		return Frame{}, fmt.Errorf("session: content origin: %w", err)
	}
	x, y, err := parsePair(originStr)
	if err != nil {
		return Frame{}, err
	}

	sizeStr, err := s.g.ResolveString(obj, graph.Key(unscaledSizeKey))
	if err != nil {
		return Frame{}, fmt.Errorf("session: unscaled size: %w", err)
	}
	w, h, err := parsePair(sizeStr)
	if err != nil {
		return Frame{}, err
	}

	return Frame{X: x, Y: y, Width: w, Height: h}, nil
}

func (s *Session) imageObject(obj core.Node) (*Image, error) {
	frame, err := s.frame(obj)
	if err != nil {
		return nil, err
	}

	path, err := s.g.ResolveString(obj, graph.Key(imagePathKey))
	if err != nil {
		return nil, fmt.Errorf("session: image path: %w", err)
	}

	image := &Image{Frame: frame, Path: path}
	// The format flag and missing marker are optional; absent means PNG
	// and present respectively.
	if jpeg, err := s.g.ResolveBool(obj, graph.Key(imageIsJPEGKey)); err == nil {
		image.JPEG = jpeg
	}
	if missing, err := s.g.ResolveBool(obj, graph.Key(imageMissingKey)); err == nil {
		image.Missing = missing
	}
	return image, nil
}

func (s *Session) textBlockObject(obj core.Node) (*TextBlock, error) {
	frame, err := s.frame(obj)
	if err != nil {
		return nil, err
	}

	storeNode, err := s.g.Resolve(obj, graph.Key(richTextKey))
	if err != nil {
		return nil, fmt.Errorf("session: text store reference: %w", err)
	}
	store, err := s.textStore(storeNode)
	if err != nil {
		return nil, err
	}

	return &TextBlock{Frame: frame, Store: store}, nil
}
