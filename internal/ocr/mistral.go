package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR extracts text from PDFs using the Mistral OCR API. Pages come
// back as markdown, so directory tables arrive as pipe rows.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *resty.Client
}

// NewMistralOCR creates a MistralOCR extractor. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   resty.New().SetTimeout(5 * time.Minute),
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ExtractText reads a PDF file, sends it to Mistral OCR, and returns the
// markdown of every page joined by PageSeparator.
func (m *MistralOCR) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read PDF %s", pdfPath)
	}

	reqBody := mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		},
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetAuthToken(m.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(m.endpoint)
	if err != nil {
		return "", eris.Wrap(err, "ocr: mistral API call")
	}

	if resp.StatusCode() != http.StatusOK {
		return "", eris.Errorf("ocr: mistral API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(resp.Body(), &ocrResp); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	pages := make([]string, len(ocrResp.Pages))
	for i, page := range ocrResp.Pages {
		pages[i] = page.Markdown
	}
	return strings.Join(pages, PageSeparator), nil
}
