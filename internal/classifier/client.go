package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Suggestion is the best-effort draft extracted from a quote image. Every
// field is advisory; a human reviews the draft before submission.
type Suggestion struct {
	QuoteNo     string `json:"quote_no"`
	Community   string `json:"community"`
	Project     string `json:"project"`
	Description string `json:"description"`
	Value       int    `json:"value"`
	Category    string `json:"category"`
	IsUrgent    bool   `json:"is_urgent"`
	Title       string `json:"title"`
}

// Client calls the external image-to-fields classifier.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	taxonomy   domain.Taxonomy
	logger     *zap.Logger
}

// NewClient builds the classifier client from configuration.
func NewClient(cfg config.ClassifierConfig, taxonomy domain.Taxonomy, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		taxonomy:   taxonomy,
		logger:     logger,
	}
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// leadingCodeRe strips alphanumeric site codes prefixed to community names.
var leadingCodeRe = regexp.MustCompile(`^[A-Za-z0-9]+\s*`)

// AnalyzeQuoteImage sends the image to the classifier and returns a
// normalized draft. Any network, timeout, or parse failure is a
// CLASSIFIER_ERROR; callers degrade to an empty suggestion.
func (c *Client) AnalyzeQuoteImage(ctx context.Context, image []byte, mimeType string) (*Suggestion, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewClassifierError(fmt.Errorf("classifier API key not configured"))
	}
	if len(image) == 0 {
		return nil, apperrors.NewValidationError("empty image", nil)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	prompt := c.buildPrompt()
	payload := generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{Text: prompt},
				{InlineData: &inlineDataPart{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewClassifierError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.NewClassifierError(err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("classifier call failed", zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewClassifierError(fmt.Errorf("classifier status %d", resp.StatusCode))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewClassifierError(fmt.Errorf("decode classifier response: %w", err))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, apperrors.NewClassifierError(fmt.Errorf("classifier response has no candidates"))
	}

	raw := ExtractFirstJSONObject(parsed.Candidates[0].Content.Parts[0].Text)
	if raw == nil {
		return nil, apperrors.NewClassifierError(fmt.Errorf("classifier output is not valid JSON"))
	}
	return c.normalize(raw), nil
}

// normalize coerces the raw classifier fields and forces the category back
// into the closed taxonomy.
func (c *Client) normalize(raw map[string]any) *Suggestion {
	community := safeString(raw["community"])
	if community != "" {
		community = strings.TrimSpace(leadingCodeRe.ReplaceAllString(community, ""))
	}
	project := safeString(raw["project"])
	value := safeInt(raw["value"])

	title := project
	if community != "" && project != "" {
		title = fmt.Sprintf("【%s】%s", community, project)
	} else if project == "" {
		title = community
	}

	return &Suggestion{
		QuoteNo:     domain.NormalizeQuoteNo(safeString(raw["quote_no"])),
		Community:   community,
		Project:     project,
		Description: safeString(raw["description"]),
		Value:       value,
		Category:    c.taxonomy.Normalize(safeString(raw["category"]), value),
		IsUrgent:    safeBool(raw["is_urgent"]),
		Title:       title,
	}
}

func (c *Client) buildPrompt() string {
	categories := strings.Join(c.taxonomy.All(), ", ")
	return fmt.Sprintf(`Analyze the image (a vendor quote or a repair-app screenshot) and output exactly one JSON object with no extra text.
Fields:
- quote_no: the quote reference number, empty string if absent
- community: the site or community name without leading codes
- project: the work title or repair summary
- description: detailed notes
- value: total amount as an integer, 0 if absent
- category: exactly one of [%s], never invent a new one
- is_urgent: true or false`, categories)
}
