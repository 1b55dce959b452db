package recognize

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/go-autorest/autorest"
)

const (
	DefaultEndpoint = "https://cloud.myscript.com/api/v4.0/iink/batch"
	acceptHeader    = "application/json,application/vnd.myscript.jiix"
	defaultDPI      = 96
)

// Credentials are the two values attached to every batch request.
type Credentials struct {
	ApplicationKey string
	HMACKey        string
}

type textConfig struct {
	Guides     toggle `json:"guides"`
	SmartGuide bool   `json:"smartGuide"`
}

type mathConfig struct {
	Solver    toggle   `json:"solver"`
	Mimetypes []string `json:"mimeTypes"`
}

type diagramConfig struct {
	Mimetypes []string `json:"mimeTypes"`
}

type toggle struct {
	Enable bool `json:"enable"`
}

// configuration nulls the two schemas that are not requested; the fields
// deliberately have no omitempty.
type configuration struct {
	Lang    string         `json:"lang"`
	Text    *textConfig    `json:"text"`
	Math    *mathConfig    `json:"math"`
	Diagram *diagramConfig `json:"diagram"`
}

type strokeGroup struct {
	X [][]float64 `json:"x"`
	Y [][]float64 `json:"y"`
}

type batchRequest struct {
	ContentType   string        `json:"contentType"`
	XDPI          int           `json:"xDPI"`
	YDPI          int           `json:"yDPI"`
	Width         int           `json:"width,omitempty"`
	Height        int           `json:"height,omitempty"`
	Configuration configuration `json:"configuration"`
	StrokeGroups  []strokeGroup `json:"strokeGroups"`
}

// BuildBatchRequest serializes all strokes as one stroke group and selects
// exactly one schema for the mode.
func BuildBatchRequest(req Request, lang string) ([]byte, error) {
	if len(req.Strokes) == 0 {
		return nil, ErrNoStrokes
	}
	group := strokeGroup{
		X: make([][]float64, 0, len(req.Strokes)),
		Y: make([][]float64, 0, len(req.Strokes)),
	}
	for _, s := range req.Strokes {
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = p.X, p.Y
		}
		group.X = append(group.X, xs)
		group.Y = append(group.Y, ys)
	}

	cfg := configuration{Lang: lang}
	switch req.Mode {
	case ModeMath:
		cfg.Math = &mathConfig{Mimetypes: []string{"application/x-latex"}}
	case ModeDiagram:
		cfg.Diagram = &diagramConfig{Mimetypes: []string{"image/svg+xml"}}
	default:
		cfg.Text = &textConfig{}
	}

	return json.Marshal(batchRequest{
		ContentType:   req.Mode.contentType(),
		XDPI:          defaultDPI,
		YDPI:          defaultDPI,
		Width:         req.Width,
		Height:        req.Height,
		Configuration: cfg,
		StrokeGroups:  []strokeGroup{group},
	})
}

// Sign returns the hex HMAC-SHA512 of body keyed by the application and HMAC keys.
func Sign(c Credentials, body []byte) string {
	mac := hmac.New(sha512.New, []byte(c.ApplicationKey+c.HMACKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// MyScript calls the batch recognition REST endpoint.
type MyScript struct {
	endpoint string
	lang     string
	creds    Credentials
	sender   autorest.Sender
}

func NewMyScript(endpoint string, creds Credentials, lang string, timeout time.Duration) *MyScript {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if lang == "" {
		lang = "en_US"
	}
	return &MyScript{
		endpoint: endpoint,
		lang:     lang,
		creds:    creds,
		sender:   &http.Client{Timeout: timeout},
	}
}

func (m *MyScript) Name() string { return "myscript" }

func (m *MyScript) Init(context.Context) error {
	if m.creds.ApplicationKey == "" || m.creds.HMACKey == "" {
		return errors.New("application and HMAC keys are required")
	}
	return nil
}

func (m *MyScript) Close() error { return nil }

func (m *MyScript) Recognize(ctx context.Context, req Request) (string, error) {
	body, err := BuildBatchRequest(req, m.lang)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq, err = autorest.Prepare(httpReq,
		autorest.AsContentType("application/json"),
		autorest.WithBytes(&body),
		autorest.WithHeader("Accept", acceptHeader),
		autorest.WithHeader("applicationKey", m.creds.ApplicationKey),
		autorest.WithHeader("hmac", Sign(m.creds, body)),
	)
	if err != nil {
		return "", fmt.Errorf("prepare request: %w", err)
	}

	resp, err := autorest.SendWithSender(m.sender, httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return Interpret(req.Mode, data)
}
