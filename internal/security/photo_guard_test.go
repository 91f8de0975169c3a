package security

import (
	"strings"
	"testing"
	"time"
)

func testGuard() PhotoGuardService {
	return NewPhotoGuard(5*time.Second, 1<<20)
}

// ValidateURLが安全な公開URLを許可することを検証
func TestValidateURL_AllowsPublicURL(t *testing.T) {
	guard := testGuard()

	urls := []string{
		"https://example.com/photo.jpg",
		"http://photos.example.org/member/1.png",
		"https://93.184.216.34/photo.jpg",
	}
	for _, u := range urls {
		if err := guard.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

// ValidateURLが危険なURLを拒否することを検証
func TestValidateURL_BlocksDangerousURL(t *testing.T) {
	guard := testGuard()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "empty URL", url: "", want: "empty URL"},
		{name: "file scheme", url: "file:///etc/passwd", want: "disallowed scheme"},
		{name: "javascript scheme", url: "javascript:alert(1)", want: "disallowed scheme"},
		{name: "localhost", url: "http://localhost/photo.jpg", want: "blocked host"},
		{name: "loopback IP", url: "http://127.0.0.1/photo.jpg", want: "blocked IP"},
		{name: "private IP 10.x", url: "http://10.0.0.5/photo.jpg", want: "blocked IP"},
		{name: "private IP 192.168.x", url: "http://192.168.1.1/photo.jpg", want: "blocked IP"},
		{name: "cloud metadata IP", url: "http://169.254.169.254/latest/meta-data/", want: "blocked IP"},
		{name: "IPv6 loopback", url: "http://[::1]/photo.jpg", want: "blocked IP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if err == nil {
				t.Fatalf("ValidateURL(%q) = nil, want error", tt.url)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}

// FetchPhotoが検証前にURLを弾くことを検証（ネットワークアクセスなし）
func TestFetchPhoto_RejectsBlockedURLBeforeRequest(t *testing.T) {
	guard := testGuard()

	if _, err := guard.FetchPhoto("http://169.254.169.254/secret"); err == nil {
		t.Fatal("expected error for metadata IP")
	}
}
