package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Extract(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		handler  http.HandlerFunc
		want     string
		wantErr  bool
	}{
		{
			name:     "pdf with content type",
			fileName: "resume.pdf",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/tika", r.URL.Path)
				assert.Equal(t, "text/plain", r.Header.Get("Accept"))
				assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, "%PDF-1.7 raw", string(body))
				_, _ = w.Write([]byte("Jane   Doe\n\n\n  Go   engineer \t\n"))
			},
			want: "Jane Doe\nGo engineer",
		},
		{
			name:     "docx",
			fileName: "resume.DOCX",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.Header.Get("Content-Type"), "wordprocessingml")
				_, _ = w.Write([]byte("text"))
			},
			want: "text",
		},
		{
			name:     "server error",
			fileName: "resume.pdf",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			got, err := New(srv.URL+"/").Extract(context.Background(), tt.fileName, []byte("%PDF-1.7 raw"))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Extract_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := New(url).Extract(context.Background(), "a.pdf", nil)
	assert.Error(t, err)
}

func TestContentTypeFromExt(t *testing.T) {
	assert.Equal(t, "application/msword", contentTypeFromExt(".doc"))
	assert.Equal(t, "text/plain", contentTypeFromExt(".txt"))
	assert.Equal(t, "", contentTypeFromExt(""))
}
