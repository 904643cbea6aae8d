package platform

import (
	"net/url"

	"postpilot/models"
)

const shareURLBase = "https://www.facebook.com/sharer/sharer.php"

// ShareURL builds the token-free public share link for a candidate. This
// is deliberately a separate path from Publish: sharing needs no
// authenticated write API, only a percent-encoded URL the user opens
// themselves.
func ShareURL(candidate models.Candidate) string {
	v := url.Values{}
	v.Set("u", candidate.ImageURL)
	v.Set("quote", candidate.Body())
	return shareURLBase + "?" + v.Encode()
}
