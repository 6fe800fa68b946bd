// Importing a signed-in browser session from a "Copy as cURL" command.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"|--header\s+'([^']+)'|--header\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"|--cookie\s+'([^']+)'|--cookie\s+"([^"]+)"`)
	curlURLRe    = regexp.MustCompile(`(?:^|\s)'?(https?://[^\s']+)'?`)
)

// BrowserSession holds the credentials found in a cURL command copied from the web dashboard.
type BrowserSession struct {
	URL         string
	AccessToken string
	Cookies     []*http.Cookie
}

// ParseCurlFile reads a file containing a cURL command and extracts the session credentials.
func ParseCurlFile(path string) (*BrowserSession, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command and extracts the bearer token and cookies.
//
// Cookies passed with -b take precedence over a Cookie header.
func ParseCurlCommand(data []byte) (*BrowserSession, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	session := &BrowserSession{}
	var cookieHeader string

	for _, match := range curlHeaderRe.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "authorization":
			if token, found := strings.CutPrefix(value, "Bearer "); found {
				session.AccessToken = strings.TrimSpace(token)
			}
		case "cookie":
			cookieHeader = value
		}
	}

	if m := curlCookieRe.FindStringSubmatch(curlCmd); m != nil {
		cookieHeader = firstGroup(m)
	}

	if cookieHeader != "" {
		cookies, err := http.ParseCookie(cookieHeader)
		if err != nil {
			return nil, fmt.Errorf("%w: cookie header: %v", ErrInvalidInput, err)
		}
		session.Cookies = cookies
	}

	if m := curlURLRe.FindStringSubmatch(curlCmd); m != nil {
		session.URL = m[1]
	}

	if session.AccessToken == "" && len(session.Cookies) == 0 {
		return nil, fmt.Errorf("%w: no credentials found in curl command", ErrInvalidInput)
	}

	return session, nil
}

// Cookie returns the named cookie, or nil.
func (s *BrowserSession) Cookie(name string) *http.Cookie {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
