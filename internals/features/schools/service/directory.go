package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Klien direktori siswa eksternal. Dipanggil hanya saat request visit
// (snapshot nama/kelas) dan saat admin test koneksi.

var (
	ErrStudentNotFound      = errors.New("student not found in school system")
	ErrDirectoryUnavailable = errors.New("unable to verify student information")
)

// Timeout pendek — kegagalan lookup tidak boleh menggantung request
const directoryTimeout = 5 * time.Second

type Student struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

var directoryClient = &http.Client{Timeout: directoryTimeout}

// LookupStudent: GET {apiURL}/students/{id} dengan header x-api-key.
func LookupStudent(ctx context.Context, apiURL, apiKey, studentID string) (*Student, error) {
	endpoint := strings.TrimRight(apiURL, "/") + "/students/" + url.PathEscape(studentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrDirectoryUnavailable
	}
	req.Header.Set("x-api-key", apiKey)

	resp, err := directoryClient.Do(req)
	if err != nil {
		return nil, ErrDirectoryUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrStudentNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, ErrDirectoryUnavailable
	}

	var student Student
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&student); err != nil {
		return nil, ErrDirectoryUnavailable
	}
	return &student, nil
}

// TestLink: cek /health direktori sekolah
func TestLink(ctx context.Context, apiURL, apiKey string) error {
	endpoint := strings.TrimRight(apiURL, "/") + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ErrDirectoryUnavailable
	}
	req.Header.Set("x-api-key", apiKey)

	resp, err := directoryClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDirectoryUnavailable, resp.StatusCode)
	}
	return nil
}
