package upstream

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	netscapeHeader = "# Netscape HTTP Cookie File"
	httpOnlyPrefix = "#HttpOnly_"
)

// cookie is one Netscape cookie-jar line.
type cookie struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	Expires           int64
	Name              string
	Value             string
	HTTPOnly          bool
}

func (c *cookie) key() string {
	return c.Domain + "\t" + c.Path + "\t" + c.Name
}

// Jar is an in-memory cookie jar that round-trips the Netscape cookie
// file format. Serialize emits lines in a deterministic order, so two
// jars holding the same cookies serialize to identical bytes and a
// changed session is detectable by plain comparison.
type Jar struct {
	mu      sync.Mutex
	entries map[string]*cookie
}

// ParseNetscape parses a Netscape format cookie blob into a Jar.
func ParseNetscape(blob string) (*Jar, error) {
	jar := &Jar{entries: make(map[string]*cookie)}

	for i, line := range strings.Split(blob, "\n") {
		line = strings.TrimRight(line, "\r")

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		} else if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("malformed cookie on line %d", i+1)
		}

		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry on line %d: %w", i+1, err)
		}

		// A leading dot and a TRUE subdomain flag are equivalent.
		domain := fields[0]
		includeSubdomains := strings.EqualFold(fields[1], "TRUE")
		if strings.HasPrefix(domain, ".") {
			domain = strings.TrimPrefix(domain, ".")
			includeSubdomains = true
		}

		entry := &cookie{
			Domain:            domain,
			IncludeSubdomains: includeSubdomains,
			Path:              fields[2],
			Secure:            strings.EqualFold(fields[3], "TRUE"),
			Expires:           expires,
			Name:              fields[5],
			Value:             fields[6],
			HTTPOnly:          httpOnly,
		}
		jar.entries[entry.key()] = entry
	}

	if len(jar.entries) == 0 {
		return nil, fmt.Errorf("no cookies found")
	}

	return jar, nil
}

// Serialize renders the jar back to Netscape format. Lines are sorted
// by domain, path and name.
func (j *Jar) Serialize() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := make([]*cookie, 0, len(j.entries))
	for _, entry := range j.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Domain != entries[b].Domain {
			return entries[a].Domain < entries[b].Domain
		}
		if entries[a].Path != entries[b].Path {
			return entries[a].Path < entries[b].Path
		}
		return entries[a].Name < entries[b].Name
	})

	var sb strings.Builder
	sb.WriteString(netscapeHeader)
	sb.WriteString("\n\n")

	for _, entry := range entries {
		if entry.HTTPOnly {
			sb.WriteString(httpOnlyPrefix)
		}
		if entry.IncludeSubdomains {
			sb.WriteByte('.')
		}
		sb.WriteString(entry.Domain)
		sb.WriteByte('\t')
		sb.WriteString(flag(entry.IncludeSubdomains))
		sb.WriteByte('\t')
		sb.WriteString(entry.Path)
		sb.WriteByte('\t')
		sb.WriteString(flag(entry.Secure))
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatInt(entry.Expires, 10))
		sb.WriteByte('\t')
		sb.WriteString(entry.Name)
		sb.WriteByte('\t')
		sb.WriteString(entry.Value)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func flag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// SetCookies implements http.CookieJar. Set-Cookie responses replace or
// add entries; an expired cookie removes its entry.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		domain := c.Domain
		includeSubdomains := true
		if domain == "" {
			domain = u.Hostname()
			includeSubdomains = false
		}
		domain = strings.TrimPrefix(domain, ".")

		path := c.Path
		if path == "" {
			path = "/"
		}

		entry := &cookie{
			Domain:            domain,
			IncludeSubdomains: includeSubdomains,
			Path:              path,
			Secure:            c.Secure,
			Name:              c.Name,
			Value:             c.Value,
			HTTPOnly:          c.HttpOnly,
		}
		if !c.Expires.IsZero() {
			entry.Expires = c.Expires.Unix()
		}

		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j.entries, entry.key())
			continue
		}
		if c.MaxAge > 0 {
			entry.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second).Unix()
		}

		j.entries[entry.key()] = entry
	}
}

// Cookies implements http.CookieJar, returning the cookies that apply
// to the given URL.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Hostname()
	secure := u.Scheme == "https"
	now := time.Now().Unix()

	matched := make([]*cookie, 0, len(j.entries))
	for _, entry := range j.entries {
		if entry.Secure && !secure {
			continue
		}
		if entry.Expires > 0 && entry.Expires < now {
			continue
		}
		if !domainMatch(host, entry) {
			continue
		}
		if !pathMatch(u.Path, entry.Path) {
			continue
		}
		matched = append(matched, entry)
	}

	sort.Slice(matched, func(a, b int) bool {
		if len(matched[a].Path) != len(matched[b].Path) {
			return len(matched[a].Path) > len(matched[b].Path)
		}
		return matched[a].Name < matched[b].Name
	})

	cookies := make([]*http.Cookie, 0, len(matched))
	for _, entry := range matched {
		cookies = append(cookies, &http.Cookie{Name: entry.Name, Value: entry.Value})
	}
	return cookies
}

func domainMatch(host string, entry *cookie) bool {
	if host == entry.Domain {
		return true
	}
	return entry.IncludeSubdomains && strings.HasSuffix(host, "."+entry.Domain)
}

func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == "" {
		requestPath = "/"
	}
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}
