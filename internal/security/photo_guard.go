// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// PhotoGuardService はリモート会員写真の安全な取得機能のインターフェースを定義する。
// カード描画時に外部URLの写真を取り込む際に使用される。
type PhotoGuardService interface {
	// FetchPhoto はURLから写真バイト列を取得する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストがブロックされる。
	// タイムアウトと最大サイズを超えた場合はエラーを返す。
	FetchPhoto(rawURL string) ([]byte, error)

	// ValidateURL はリクエスト送信前の静的なURL検証を行う。
	// DNS再バインディング攻撃はsafeurlクライアント側のDialer検証で防止される。
	ValidateURL(rawURL string) error
}

// photoBlockedCIDRs は写真取得でブロックされるネットワーク範囲。
// プライベートIP (RFC 1918)、ループバック、リンクローカル（クラウド
// メタデータIPを含む）、およびIPv6の同等範囲。
var photoBlockedCIDRs = mustParseCIDRs(
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	"127.0.0.0/8", "169.254.0.0/16", "0.0.0.0/8",
	"::1/128", "fe80::/10", "fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []net.IPNet {
	nets := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid blocked CIDR %s: %v", cidr, err))
		}
		nets = append(nets, *network)
	}
	return nets
}

// photoGuard はPhotoGuardServiceの実装。
// safeurlのDialer検証付きHTTPクライアントを1つ構築して使い回す。
type photoGuard struct {
	client  *http.Client
	maxSize int64
}

// NewPhotoGuard はPhotoGuardServiceの新しいインスタンスを生成する。
func NewPhotoGuard(timeout time.Duration, maxSize int64) *photoGuard {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &photoGuard{
		client:  safeurl.Client(config).Client,
		maxSize: maxSize,
	}
}

// FetchPhoto はURLから写真バイト列を取得する。
// 応答本文はmaxSizeまでで打ち切り、超過した場合はエラーを返す。
func (g *photoGuard) FetchPhoto(rawURL string) ([]byte, error) {
	if err := g.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	resp, err := g.client.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo body: %w", err)
	}
	if int64(len(data)) > g.maxSize {
		return nil, fmt.Errorf("photo exceeds maximum size of %d bytes", g.maxSize)
	}
	return data, nil
}

// ValidateURL はリクエスト送信前の静的なURL検証を行う。
func (g *photoGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("disallowed scheme: %s", scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}
	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range photoBlockedCIDRs {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip.String())
			}
		}
	}

	return nil
}
