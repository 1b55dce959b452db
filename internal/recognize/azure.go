package recognize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/disintegration/imaging"

	"InkBoard/internal/state"
)

// minOCRSide is the smallest image edge the OCR service accepts.
const minOCRSide = 50

// Azure runs Computer Vision OCR over the rendered page. It only supports
// text; math and diagram requests report ErrUnsupported.
type Azure struct {
	Unsupported
	client   *computervision.BaseClient
	endpoint string
	key      string
}

func NewAzure(endpoint, key string) *Azure {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(key)
	return &Azure{client: &client, endpoint: endpoint, key: key}
}

func (a *Azure) Name() string { return "azure" }

func (a *Azure) Init(context.Context) error {
	if a.endpoint == "" || a.key == "" {
		return errors.New("azure endpoint and key are required")
	}
	return nil
}

func (a *Azure) Recognize(ctx context.Context, req Request) (string, error) {
	if req.Mode != ModeText {
		return "", fmt.Errorf("%s mode: %w", req.Mode, ErrUnsupported)
	}
	if req.Snapshot == nil {
		return "", errors.New("azure recognition needs a rendered snapshot")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, PrepareForOCR(req.Snapshot, req.Strokes), imaging.PNG); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	result, err := a.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(&buf),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		var derr autorest.DetailedError
		if errors.As(err, &derr) && derr.StatusCode != nil {
			if code, ok := derr.StatusCode.(int); ok && code != 0 {
				return "", &HTTPError{StatusCode: code, Body: derr.Message}
			}
		}
		return "", fmt.Errorf("azure ocr: %w", err)
	}
	return OCRText(result), nil
}

// PrepareForOCR crops the snapshot to the inked area and enhances contrast.
func PrepareForOCR(snapshot image.Image, strokes []state.Stroke) image.Image {
	b := snapshot.Bounds()
	img := snapshot
	if r := state.Bounds(strokes, 16).Clamp(b.Dx(), b.Dy()); !r.Empty() {
		img = imaging.Crop(snapshot, image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height)))
	}

	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)
	out = imaging.Sharpen(out, 1.0)

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w < minOCRSide || h < minOCRSide {
		canvas := imaging.New(max(w, minOCRSide), max(h, minOCRSide), color.White)
		out = imaging.PasteCenter(canvas, out)
	}
	return out
}

// OCRText joins recognized words into lines.
func OCRText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var words []string
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return strings.Join(lines, "\n")
}
