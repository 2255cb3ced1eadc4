package upstream

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBlob = `# Netscape HTTP Cookie File
# This is a comment.

.youtube.com	TRUE	/	TRUE	1893456000	SID	session-value
#HttpOnly_.youtube.com	TRUE	/	TRUE	1893456000	SSID	secret-value
www.youtube.com	FALSE	/	FALSE	0	PREF	hl=en
`

func TestParseNetscape(t *testing.T) {
	jar, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)
	assert.Len(t, jar.entries, 3)
}

func TestParseNetscape_MalformedLine(t *testing.T) {
	_, err := ParseNetscape("not a cookie line\n")
	assert.Error(t, err)
}

func TestParseNetscape_BadExpiry(t *testing.T) {
	_, err := ParseNetscape(".youtube.com\tTRUE\t/\tTRUE\tsoon\tSID\tvalue\n")
	assert.Error(t, err)
}

func TestParseNetscape_Empty(t *testing.T) {
	_, err := ParseNetscape("# Netscape HTTP Cookie File\n\n")
	assert.Error(t, err)
}

func TestJar_SerializeDeterministic(t *testing.T) {
	first, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)
	second, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)

	assert.Equal(t, first.Serialize(), second.Serialize())
}

func TestJar_SerializeRoundTrip(t *testing.T) {
	jar, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)

	serialized := jar.Serialize()
	reparsed, err := ParseNetscape(serialized)
	require.NoError(t, err)

	// A serialize/parse/serialize cycle is stable.
	assert.Equal(t, serialized, reparsed.Serialize())

	// The HttpOnly marker survives the round trip.
	assert.Contains(t, serialized, "#HttpOnly_.youtube.com")
}

func TestJar_Cookies_DomainMatching(t *testing.T) {
	jar, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)

	u, _ := url.Parse("https://www.youtube.com/")
	names := cookieNames(jar.Cookies(u))
	assert.ElementsMatch(t, []string{"SID", "SSID", "PREF"}, names)

	// Subdomain cookies apply to other hosts, host-only ones do not.
	u, _ = url.Parse("https://music.youtube.com/")
	names = cookieNames(jar.Cookies(u))
	assert.ElementsMatch(t, []string{"SID", "SSID"}, names)

	u, _ = url.Parse("https://example.com/")
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_Cookies_SecureOverHTTPOnly(t *testing.T) {
	jar, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)

	u, _ := url.Parse("http://www.youtube.com/")
	names := cookieNames(jar.Cookies(u))
	assert.ElementsMatch(t, []string{"PREF"}, names)
}

func TestJar_SetCookies_RotatesSerialization(t *testing.T) {
	jar, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)
	before := jar.Serialize()

	u, _ := url.Parse("https://www.youtube.com/")
	jar.SetCookies(u, []*http.Cookie{{
		Name:    "SID",
		Value:   "rotated-value",
		Domain:  ".youtube.com",
		Path:    "/",
		Secure:  true,
		Expires: time.Now().Add(24 * time.Hour),
	}})

	after := jar.Serialize()
	assert.NotEqual(t, before, after)
	assert.Contains(t, after, "rotated-value")
	assert.NotContains(t, after, "session-value")
}

func TestJar_SetCookies_ExpiredRemovesEntry(t *testing.T) {
	jar, err := ParseNetscape(sampleBlob)
	require.NoError(t, err)

	u, _ := url.Parse("https://www.youtube.com/")
	jar.SetCookies(u, []*http.Cookie{{
		Name:   "PREF",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}})

	assert.NotContains(t, jar.Serialize(), "PREF")
}

func cookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}
