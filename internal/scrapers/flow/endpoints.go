package flow

import (
	"fmt"
	"net/url"
)

// DefaultBaseUrl is the Polar Flow web service.
const DefaultBaseUrl = "https://flow.polar.com"

// Endpoints holds the fixed locations used by the scraper, it is built once
// from a base url and never modified.
type Endpoints struct {
	BaseUrl    *url.URL
	LoginGet   string
	LoginPost  string
	YearReport string
}

func NewEndpoints(baseUrl string) (Endpoints, error) {
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return Endpoints{}, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Endpoints{}, fmt.Errorf("base url %q must be absolute", baseUrl)
	}
	return Endpoints{
		BaseUrl:    parsed,
		LoginGet:   "/login",
		LoginPost:  "/login",
		YearReport: "/progress/getReportAsJson",
	}, nil
}
