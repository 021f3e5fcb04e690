package cebl

import (
	"net/http"
	"sort"
	"strings"

	"github.com/valyala/bytebufferpool"
)

var redactedHeaders = map[string]struct{}{
	"X-Api-Key":     {},
	"Authorization": {},
}

// buildCurlPreview renders a request as a copy-pasteable curl command with
// credentials masked.
func buildCurlPreview(target string, headers http.Header) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart(shellQuote(target))

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := strings.Join(headers.Values(name), ", ")
		if _, ok := redactedHeaders[http.CanonicalHeaderKey(name)]; ok {
			value = "***"
		}
		appendPart("-H")
		appendPart(shellQuote(name + ": " + value))
	}

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}
