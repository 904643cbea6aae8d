package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"postpilot/internal/logger"
	"postpilot/models"
)

const DefaultGraphAPIURL = "https://graph.facebook.com/v18.0"

// FacebookClient implements the authenticated publish protocol against the
// Graph API: validate token, upload photo, create feed post. Publishing is
// strictly two-phase; either phase failing aborts the whole operation. A
// media object uploaded before a failed post creation is left orphaned on
// the platform (no cleanup call exists for unpublished photos).
type FacebookClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewFacebookClient(baseURL string) *FacebookClient {
	if baseURL == "" {
		baseURL = DefaultGraphAPIURL
	}
	return &FacebookClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// graphErrorMessage extracts the platform's reported error message, which
// is surfaced to the user verbatim.
func graphErrorMessage(body []byte, status int) string {
	var ge graphError
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		return ge.Error.Message
	}
	return fmt.Sprintf("unexpected status %d", status)
}

// Connect turns a submitted access token into a Connection. The token is
// checked against the profile endpoint: a platform rejection fails the
// handshake, while a transport-level failure only downgrades the
// user-visible confirmation (connection kept, no account info).
func (fc *FacebookClient) Connect(ctx context.Context, accessToken string) (*models.Connection, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, &AuthError{Message: "access token is required"}
	}

	conn := &models.Connection{
		Platform:    models.PlatformFacebook,
		AccessToken: accessToken,
		ConnectedAt: time.Now(),
	}

	account, err := fc.fetchProfile(ctx, accessToken)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		logger.Warn("profile fetch failed, connection kept without account info", "error", err)
		return conn, nil
	}

	conn.Account = *account
	logger.Info("platform connected", "platform", conn.Platform, "account", account.Name)
	return conn, nil
}

func (fc *FacebookClient) fetchProfile(ctx context.Context, accessToken string) (*models.AccountInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fc.BaseURL+"/me?fields=id,name,email", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := fc.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &AuthError{Message: graphErrorMessage(body, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch: unexpected status %d", resp.StatusCode)
	}

	var account models.AccountInfo
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("profile fetch: invalid response: %w", err)
	}
	return &account, nil
}

// Publish runs the two-phase publish: upload the image binary, then create
// a feed post referencing the uploaded media. On success a PublishedRecord
// is returned; on any failure no record exists.
func (fc *FacebookClient) Publish(ctx context.Context, conn *models.Connection, candidate models.Candidate) (*models.PublishedRecord, error) {
	if conn == nil || conn.AccessToken == "" {
		return nil, &AuthError{Message: "no active connection"}
	}

	mediaID, err := fc.uploadPhoto(ctx, conn.AccessToken, candidate.ImageURL)
	if err != nil {
		return nil, err
	}

	postID, err := fc.createPost(ctx, conn.AccessToken, candidate.Body(), mediaID)
	if err != nil {
		return nil, err
	}

	logger.Info("post published", "platform", conn.Platform, "remote_id", postID)
	return &models.PublishedRecord{
		RemoteID:    postID,
		Candidate:   candidate,
		PublishedAt: time.Now(),
		Status:      models.PublishStatusSuccess,
	}, nil
}

// uploadPhoto pushes the image binary to the media endpoint as an
// unpublished photo and returns the remote media id.
func (fc *FacebookClient) uploadPhoto(ctx context.Context, accessToken, imageURL string) (string, error) {
	imageData, err := fc.fetchImage(ctx, imageURL)
	if err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("source", "post.jpg")
	if err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}
	if _, err := part.Write(imageData); err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}
	if err := writer.WriteField("published", "false"); err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}
	if err := writer.Close(); err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fc.BaseURL+"/me/photos", &buf)
	if err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := fc.HTTPClient.Do(req)
	if err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &PublishError{Phase: "upload", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &PublishError{Phase: "upload", Message: graphErrorMessage(body, resp.StatusCode)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		return "", &PublishError{Phase: "upload", Message: "no media id in response"}
	}
	return out.ID, nil
}

// fetchImage resolves the candidate's image locator to raw bytes. The
// generation gateway returns either an https URL or a base64 data URL.
func (fc *FacebookClient) fetchImage(ctx context.Context, locator string) ([]byte, error) {
	if strings.HasPrefix(locator, "data:") {
		_, encoded, ok := strings.Cut(locator, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		return base64.StdEncoding.DecodeString(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fc.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// createPost creates the feed entry referencing the uploaded media.
func (fc *FacebookClient) createPost(ctx context.Context, accessToken, body, mediaID string) (string, error) {
	form := url.Values{}
	form.Set("message", body)
	form.Set("attached_media[0]", fmt.Sprintf(`{"media_fbid":%q}`, mediaID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fc.BaseURL+"/me/feed", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &PublishError{Phase: "post", Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := fc.HTTPClient.Do(req)
	if err != nil {
		return "", &PublishError{Phase: "post", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &PublishError{Phase: "post", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &PublishError{Phase: "post", Message: graphErrorMessage(respBody, resp.StatusCode)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil || out.ID == "" {
		return "", &PublishError{Phase: "post", Message: "no post id in response"}
	}
	return out.ID, nil
}
