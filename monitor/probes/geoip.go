package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hostpulse/hostpulse/share/models"
)

// DefaultGeoAPIURL answers with the caller's public IP, geo names and the
// provider organisation.
const DefaultGeoAPIURL = "https://ipinfo.io/json"

const geoRequestTimeout = 5 * time.Second

// FetchGeoInfo looks up the public IP and its geo/ISP attribution.
func FetchGeoInfo(ctx context.Context, apiURL string) (*models.GeoInfo, error) {
	httpClient := &http.Client{Timeout: geoRequestTimeout}

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %s", apiURL, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("request to %s failed with status %d: %s", apiURL, res.StatusCode, b)
	}

	var info models.GeoInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
