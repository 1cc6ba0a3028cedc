package scanner

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

var (
	// ErrNotFound means the frame holds no readable symbol. It is not a
	// failure; the scan loop simply moves on to the next frame.
	ErrNotFound = errors.New("no barcode in frame")

	// ErrDecodeFault is an abnormal decoder or device failure. It ends the
	// scan session.
	ErrDecodeFault = errors.New("decode fault")
)

// Decoder turns a frame into a barcode symbol. Decode returns ErrNotFound
// for frames without a symbol and an error wrapping ErrDecodeFault for
// anything else. Reset releases whatever state the decoder keeps between
// frames.
type Decoder interface {
	Decode(frame image.Image) (string, error)
	Reset()
}

// ZXingDecoder reads retail 1D symbologies (EAN-13, EAN-8, UPC-A, UPC-E)
// plus Code 128.
type ZXingDecoder struct {
	mu      sync.Mutex
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder() *ZXingDecoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &ZXingDecoder{
		readers: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(hints),
			oned.NewCode128Reader(),
		},
		hints: hints,
	}
}

func (d *ZXingDecoder) Decode(frame image.Image) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("%w: nil frame", ErrDecodeFault)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	bmp, err := gozxing.NewBinaryBitmapFromImage(frame)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFault, err)
	}

	for _, reader := range d.readers {
		result, err := reader.Decode(bmp, d.hints)
		if err == nil {
			return result.GetText(), nil
		}
		if !isMiss(err) {
			return "", fmt.Errorf("%w: %v", ErrDecodeFault, err)
		}
	}
	return "", ErrNotFound
}

func (d *ZXingDecoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, reader := range d.readers {
		reader.Reset()
	}
}

// isMiss reports whether a gozxing error only means "nothing readable here".
// Checksum and format errors come from partial or blurred symbols and are
// as ordinary as an empty frame.
func isMiss(err error) bool {
	if _, ok := err.(gozxing.NotFoundException); ok {
		return true
	}
	if _, ok := err.(gozxing.ChecksumException); ok {
		return true
	}
	if _, ok := err.(gozxing.FormatException); ok {
		return true
	}
	return false
}
