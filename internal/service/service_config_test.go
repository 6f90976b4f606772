package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

func payloadFixture() models.AccountPayload {
	return models.AccountPayload{
		PrivateKey:          "priv-key",
		Addresses:           "10.0.0.2/32",
		MTU:                 json.Number("1380"),
		EndpointPublicKey:   "pub-key",
		PresharedKey:        "psk",
		Endpoint:            "1.2.3.4:51820",
		AllowedIPs:          "0.0.0.0/0",
		PersistentKeepalive: json.Number("25"),
	}
}

func newConfigService(t *testing.T) (ConfigService, string) {
	t.Helper()

	dir := t.TempDir()
	svc := NewConfigService(config.Configs{Dir: dir, FilePrefix: "radar"}, logger.Nop())
	return svc, dir
}

func TestBuild_DefaultDNS(t *testing.T) {
	svc, _ := newConfigService(t)

	path, err := svc.Build(context.Background(), payloadFixture(), nil)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `[Interface]
PrivateKey = priv-key
Address = 10.0.0.2/32
DNS = 8.8.8.8,1.1.1.1
MTU = 1380

[Peer]
PublicKey = pub-key
PresharedKey = psk
Endpoint = 1.2.3.4:51820
AllowedIPs = 0.0.0.0/0
PersistentKeepalive = 25
`
	assert.Equal(t, want, string(content))
}

func TestBuild_DNSProfileUsedVerbatim(t *testing.T) {
	svc, _ := newConfigService(t)

	path, err := svc.Build(context.Background(), payloadFixture(), &models.DNSProfile{
		Name:      "AdGuard",
		Primary:   "1.2.3.4",
		Secondary: "5.6.7.8",
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "DNS = 1.2.3.4,5.6.7.8\n")
	assert.NotContains(t, string(content), "8.8.8.8")
}

func TestBuild_IncompleteProfileRejected(t *testing.T) {
	svc, _ := newConfigService(t)

	_, err := svc.Build(context.Background(), payloadFixture(), &models.DNSProfile{
		Name:    "broken",
		Primary: "1.2.3.4",
	})
	require.ErrorIs(t, err, ErrInvalidDNSProfile)
}

func TestBuild_MissingFieldFailsWithoutArtifact(t *testing.T) {
	svc, dir := newConfigService(t)

	payload := payloadFixture()
	payload.PresharedKey = ""

	_, err := svc.Build(context.Background(), payload, nil)
	require.ErrorIs(t, err, ErrMissingPayloadField)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "a failed build leaves no partial artifact")
}

func TestBuild_FilenameShape(t *testing.T) {
	svc, dir := newConfigService(t)

	path, err := svc.Build(context.Background(), payloadFixture(), nil)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^radar-[A-Z0-9]{8}\.conf$`), filepath.Base(path))
}

func TestBuild_TwoCallsDistinctNamesSameContent(t *testing.T) {
	svc, _ := newConfigService(t)

	first, err := svc.Build(context.Background(), payloadFixture(), nil)
	require.NoError(t, err)
	second, err := svc.Build(context.Background(), payloadFixture(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestNewConfigService_DefaultsEmptyConfig(t *testing.T) {
	svc := NewConfigService(config.Configs{}, logger.Nop()).(*configService)

	assert.Equal(t, "configs", svc.dir)
	assert.Equal(t, "radar", svc.prefix)
}

func TestBuild_DefaultPrefixWhenUnset(t *testing.T) {
	dir := t.TempDir()
	svc := NewConfigService(config.Configs{Dir: dir}, logger.Nop())

	path, err := svc.Build(context.Background(), payloadFixture(), nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^radar-[A-Z0-9]{8}\.conf$`), filepath.Base(path))
}

func TestBuild_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "configs")
	svc := NewConfigService(config.Configs{Dir: dir, FilePrefix: "radar"}, logger.Nop())

	path, err := svc.Build(context.Background(), payloadFixture(), nil)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
