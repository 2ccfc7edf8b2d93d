// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ReadBody reads and decodes a response body to UTF-8. Older campus boards
// serve EUC-KR or CP949, often without a charset in the Content-Type header,
// so the raw bytes are transcoded when the header says so or when they are
// not valid UTF-8.
func ReadBody(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	switch charsetOf(resp.Header.Get("Content-Type")) {
	case "euc-kr", "cp949", "ks_c_5601-1987":
		return decodeKorean(raw)
	case "utf-8":
		return string(raw), nil
	}

	// No declared charset: trust UTF-8 when it validates, otherwise assume
	// a legacy Korean encoding.
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return decodeKorean(raw)
}

// charsetOf extracts the lowercased charset parameter from a Content-Type
// header, or "" when absent or unparsable.
func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

func decodeKorean(raw []byte) (string, error) {
	// EUCKR covers CP949 in x/text.
	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decoding EUC-KR body: %w", err)
	}
	return string(decoded), nil
}
