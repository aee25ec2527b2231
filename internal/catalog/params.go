package catalog

import (
	"net/http"
	"net/url"
	"strconv"

	"hotsoonripper/internal/consts"
)

// Device identity the search endpoint expects from the mobile app.
var searchIdentity = url.Values{
	"iid":              {"28631515648"},
	"ac":               {"WIFI"},
	"os_api":           {"18"},
	"app_name":         {"live_stream"},
	"channel":          {"App Store"},
	"idfa":             {"00000000-0000-0000-0000-000000000000"},
	"device_platform":  {"iphone"},
	"live_sdk_version": {"3.6.1"},
	"vid":              {"2ED370A7-F09C-4C9E-90F5-872D57F3127C"},
	"openudid":         {"20dae85eeac1da35a69e2a0ffeaeef41c78a2e97"},
	"device_type":      {"iPhone8,2"},
	"version_code":     {"3.6.1"},
	"os_version":       {"11.3"},
	"screen_width":     {"1242"},
	"aid":              {"1112"},
	"device_id":        {"46166717995"},
}

func searchParams(token string) url.Values {
	params := make(url.Values, len(searchIdentity)+5)
	for k, v := range searchIdentity {
		params[k] = v
	}

	params.Set("q", token)
	params.Set("offset", "0")
	params.Set("count", strconv.Itoa(consts.SearchCount))
	params.Set("from_label", "search")
	params.Set("user_action", "initiative")

	return params
}

func listParams(userID string, offset int, maxTime string) url.Values {
	params := url.Values{
		"user_id": {userID},
		"count":   {strconv.Itoa(consts.PageSize)},
		"offset":  {strconv.Itoa(offset)},
	}

	if maxTime != "" {
		params.Set("max_time", maxTime)
	}

	return params
}

// DefaultSearchHeaders returns the headers sent with search calls. Host overrides the request host.
func DefaultSearchHeaders() http.Header {
	return http.Header{
		"Host":       {"hotsoon.snssdk.com"},
		"User-Agent": {"Mozilla/5.0 (iPhone; CPU iPhone OS 11_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E216 AliApp(TUnionSDK/1.3.1) live_stream_3.6.1 JsSdk/2.0 NetType/WIFI Channel/App Store"},
	}
}

// DefaultListHeaders returns the headers sent with listing calls.
// Accept-Encoding is left to the transport so compressed bodies are decoded transparently.
func DefaultListHeaders() http.Header {
	return http.Header{
		"Accept":                    {"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"},
		"Accept-Language":           {"zh-CN,zh;q=0.9"},
		"Cache-Control":             {"max-age=0"},
		"Upgrade-Insecure-Requests": {"1"},
		"User-Agent":                {"Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) AppleWebKit/604.1.38 (KHTML, like Gecko) Version/11.0 Mobile/15A372 Safari/604.1"},
	}
}
