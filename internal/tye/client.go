package tye

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	getInformationBody = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tye="http://tyeexpress.com/">
	<soapenv:Header/>
	<soapenv:Body>
		<tye:GetInformation>
			<tye:apiKey>%s</tye:apiKey>
		</tye:GetInformation>
	</soapenv:Body>
</soapenv:Envelope>`

	registerDocumentsBody = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tye="http://tyeexpress.com/">
	<soapenv:Header/>
	<soapenv:Body>
		<tye:RegisterDocuments>
			<tye:xml>%s</tye:xml>
			<tye:apiKey>%s</tye:apiKey>
		</tye:RegisterDocuments>
	</soapenv:Body>
</soapenv:Envelope>`

	registerDocumentsAction = "http://tyeexpress.com/RegisterDocuments"
)

// Config holds expense-service client configuration
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the TyE expense service over its SOAP endpoint.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new expense-service client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// FetchDocuments retrieves the entire current batch of pending cash
// advances and reports. Instances with the "null" user sentinel are
// discarded before the result is returned.
func (c *Client) FetchDocuments(ctx context.Context) (*InformationResult, error) {
	body := fmt.Sprintf(getInformationBody, c.apiKey)

	respBody, err := c.post(ctx, body, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	var envelope getInformationEnvelope
	if err := xml.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode document batch: %w", err)
	}

	result := envelope.Body.Response.Result
	result.dropNullUsers()

	c.logger.Info("Fetched document batch",
		zap.Int("cash_advances", len(result.CashAdvances)),
		zap.Int("reports", len(result.Reports)))

	return &result, nil
}

// RegisterDocuments sends one concatenated fragment of status
// notifications. Anything other than HTTP 200 is a failure.
func (c *Client) RegisterDocuments(ctx context.Context, fragment string) error {
	body := fmt.Sprintf(registerDocumentsBody, fragment, c.apiKey)

	if _, err := c.post(ctx, body, registerDocumentsAction); err != nil {
		return fmt.Errorf("failed to register documents: %w", err)
	}

	c.logger.Info("Status notifications registered")
	return nil
}

func (c *Client) post(ctx context.Context, body, soapAction string) ([]byte, error) {
	// The service rejects envelopes containing newlines.
	payload := strings.ReplaceAll(body, "\n", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("X-Api-Key", c.apiKey)
	if soapAction != "" {
		req.Header.Set("SOAPAction", soapAction)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	return respBody, nil
}
