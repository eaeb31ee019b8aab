package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alfredjeanlab/lots/internal/idgen"
)

// fakeS3 records PutObject requests.
type fakeS3 struct {
	method      string
	path        string
	contentType string
	body        string
	status      int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.method = r.Method
	f.path = r.URL.Path
	f.contentType = r.Header.Get("Content-Type")
	data, _ := io.ReadAll(r.Body)
	f.body = string(data)
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func newTestUploader(t *testing.T, h http.Handler) *S3Uploader {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},

		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	return newS3Uploader(client, "lots", "uploads/")
}

func TestS3Uploader_Upload(t *testing.T) {
	f := &fakeS3{}
	u := newTestUploader(t, f)

	id, err := u.Upload(context.Background(), []byte("jpegdata"), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !idgen.IsTemp(id) {
		t.Errorf("id = %q is not a temp id", id)
	}
	if f.method != http.MethodPut {
		t.Errorf("method = %q, want PUT", f.method)
	}
	if want := "/lots/uploads/" + id; f.path != want {
		t.Errorf("path = %q, want %q", f.path, want)
	}
	if f.contentType != "image/jpeg" {
		t.Errorf("content-type = %q", f.contentType)
	}
	if !strings.Contains(f.body, "jpegdata") {
		t.Errorf("body = %q", f.body)
	}
}

func TestS3Uploader_Empty(t *testing.T) {
	f := &fakeS3{}
	u := newTestUploader(t, f)
	if _, err := u.Upload(context.Background(), nil, ""); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Upload() error = %v, want ErrEmpty", err)
	}
	if f.method != "" {
		t.Error("empty upload reached the bucket")
	}
}

func TestS3Uploader_ServerError(t *testing.T) {
	u := newTestUploader(t, &fakeS3{status: http.StatusForbidden})
	if _, err := u.Upload(context.Background(), []byte("x"), ""); err == nil {
		t.Fatal("Upload() error = nil on 403")
	}
}

func TestS3Uploader_ObjectKey(t *testing.T) {
	u := newS3Uploader(nil, "b", "uploads/")
	if got := u.ObjectKey("tmp-1"); got != "uploads/tmp-1" {
		t.Errorf("ObjectKey() = %q", got)
	}
}

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", png, "image/png"},
		{"pdf", []byte("%PDF-1.7\n"), "application/pdf"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := DetectContentType(tt.data); got != tt.want {
			t.Errorf("%s: DetectContentType() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestS3Uploader_SniffsContentType(t *testing.T) {
	f := &fakeS3{}
	u := newTestUploader(t, f)
	if _, err := u.Upload(context.Background(), []byte("%PDF-1.7\n"), ""); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if f.contentType != "application/pdf" {
		t.Errorf("content-type = %q, want application/pdf", f.contentType)
	}
}
