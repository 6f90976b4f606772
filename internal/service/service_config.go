package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

// Default DNS pair used only when the user skipped the DNS-profile choice.
const (
	defaultPrimaryDNS   = "8.8.8.8"
	defaultSecondaryDNS = "1.1.1.1"
)

const (
	defaultConfigsDir = "configs"
	defaultFilePrefix = "radar"
)

const artifactTokenLength = 8

// artifactTokenAlphabet spans 36^8 names; collisions are accepted as
// negligible rather than checked.
const artifactTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type configService struct {
	dir    string
	prefix string

	logger *logger.Logger
}

// NewConfigService builds the artifact renderer. Unset directory and file
// prefix fall back to defaultConfigsDir and defaultFilePrefix.
func NewConfigService(cfg config.Configs, logger *logger.Logger) ConfigService {
	if cfg.Dir == "" {
		cfg.Dir = defaultConfigsDir
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = defaultFilePrefix
	}

	return &configService{
		dir:    cfg.Dir,
		prefix: cfg.FilePrefix,
		logger: logger,
	}
}

// Build implements [ConfigService]. The document is rendered completely or
// not at all: any missing payload field fails the build before a file is
// created.
func (c *configService) Build(ctx context.Context, payload models.AccountPayload, profile *models.DNSProfile) (string, error) {
	log := logger.FromContext(ctx)

	document, err := renderPeerConfig(payload, profile)
	if err != nil {
		log.Err(err).Str("func", "configService.Build").Msg("failed to render peer config")
		return "", err
	}

	if err = os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create configs directory: %w", err)
	}

	token, err := artifactToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate artifact name: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("%s-%s.conf", c.prefix, token))
	if err = os.WriteFile(path, []byte(document), 0o600); err != nil {
		log.Err(err).Str("func", "configService.Build").Str("path", path).Msg("failed to write artifact")
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}

// renderPeerConfig renders the fixed-order key/value document. Key names
// and section order are part of the artifact contract and never change.
func renderPeerConfig(payload models.AccountPayload, profile *models.DNSProfile) (string, error) {
	primary, secondary := defaultPrimaryDNS, defaultSecondaryDNS
	if profile != nil {
		if profile.Primary == "" || profile.Secondary == "" {
			return "", ErrInvalidDNSProfile
		}
		primary, secondary = profile.Primary, profile.Secondary
	}

	fields := []struct {
		name  string
		value string
	}{
		{"privateKey", payload.PrivateKey},
		{"addresses", payload.Addresses},
		{"mtu", payload.MTU.String()},
		{"endpointPublicKey", payload.EndpointPublicKey},
		{"presharedKey", payload.PresharedKey},
		{"endpoint", payload.Endpoint},
		{"allowedIPs", payload.AllowedIPs},
		{"persistentKeepalive", payload.PersistentKeepalive.String()},
	}
	for _, f := range fields {
		if f.value == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingPayloadField, f.name)
		}
	}

	var b strings.Builder
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", payload.PrivateKey)
	fmt.Fprintf(&b, "Address = %s\n", payload.Addresses)
	fmt.Fprintf(&b, "DNS = %s,%s\n", primary, secondary)
	fmt.Fprintf(&b, "MTU = %s\n", payload.MTU.String())
	b.WriteString("\n[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", payload.EndpointPublicKey)
	fmt.Fprintf(&b, "PresharedKey = %s\n", payload.PresharedKey)
	fmt.Fprintf(&b, "Endpoint = %s\n", payload.Endpoint)
	fmt.Fprintf(&b, "AllowedIPs = %s\n", payload.AllowedIPs)
	fmt.Fprintf(&b, "PersistentKeepalive = %s\n", payload.PersistentKeepalive.String())

	return b.String(), nil
}

func artifactToken() (string, error) {
	buf := make([]byte, artifactTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = artifactTokenAlphabet[int(b)%len(artifactTokenAlphabet)]
	}

	return string(buf), nil
}
