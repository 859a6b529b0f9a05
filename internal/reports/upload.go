package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrPermissionDenied = errors.New("media library permission denied")

// MediaLibrary is where a report is picked from: the device gallery in the
// app, a multipart form over HTTP.
type MediaLibrary interface {
	RequestPermission(ctx context.Context) (granted bool, err error)
	Pick(ctx context.Context) (PickResult, error)
}

type Asset struct {
	Name        string
	ContentType string
	Body        []byte
}

type PickResult struct {
	Canceled bool
	Assets   []Asset
}

type Uploaded struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	At          time.Time `json:"uploaded_at"`
}

// ReportStore keeps uploaded report files.
type ReportStore interface {
	Put(ctx context.Context, u Uploaded, body []byte) error
}

// UploadReport asks for permission, lets the user pick, and stores what was
// picked. A canceled pick uploads nothing and is not an error.
func UploadReport(ctx context.Context, lib MediaLibrary, store ReportStore) ([]Uploaded, error) {
	granted, err := lib.RequestPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("request permission: %w", err)
	}
	if !granted {
		return nil, ErrPermissionDenied
	}

	res, err := lib.Pick(ctx)
	if err != nil {
		return nil, fmt.Errorf("pick report: %w", err)
	}
	if res.Canceled {
		return nil, nil
	}

	out := make([]Uploaded, 0, len(res.Assets))
	for _, a := range res.Assets {
		u := Uploaded{
			ID:          uuid.NewString(),
			Name:        filepath.Base(a.Name),
			ContentType: a.ContentType,
			Size:        len(a.Body),
			At:          time.Now().UTC(),
		}
		if err := store.Put(ctx, u, a.Body); err != nil {
			return out, fmt.Errorf("store %s: %w", u.Name, err)
		}
		out = append(out, u)
	}
	return out, nil
}

// DirStore writes each report as <dir>/<id>-<name>.
type DirStore struct{ Dir string }

func (s DirStore) Put(_ context.Context, u Uploaded, body []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	name := strings.ReplaceAll(u.Name, string(filepath.Separator), "_")
	return os.WriteFile(filepath.Join(s.Dir, u.ID+"-"+name), body, 0o644)
}
