package retroapi

import (
	"net/url"
	"strconv"
	"strings"
)

// apiRequest describes one upstream call.
type apiRequest struct {
	endpoint string
	params   url.Values
}

func newAPIRequest(endpoint string) *apiRequest {
	return &apiRequest{endpoint: endpoint, params: url.Values{}}
}

func (r *apiRequest) addParam(key, value string) *apiRequest {
	if value != "" {
		r.params.Set(key, value)
	}
	return r
}

func (r *apiRequest) addIntParam(key string, value int) *apiRequest {
	if value >= 0 {
		r.params.Set(key, strconv.Itoa(value))
	}
	return r
}

func (r *apiRequest) addFlag(key string, on bool) *apiRequest {
	if on {
		r.params.Set(key, "1")
	}
	return r
}

func (r *apiRequest) addIntList(key string, values []int) *apiRequest {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return r.addParam(key, strings.Join(parts, ","))
}

// buildURL renders the request URL. The API key travels in "y".
func (r *apiRequest) buildURL(baseURL, apiKey string) string {
	params := url.Values{}
	for k, v := range r.params {
		params[k] = v
	}
	params.Set("y", apiKey)
	return strings.TrimRight(baseURL, "/") + "/" + r.endpoint + ".php?" + params.Encode()
}
