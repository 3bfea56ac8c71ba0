package ssl

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCertificate(t *testing.T) {
	key, cert, err := GenerateCertificate("trino-reconciler", []string{"trino-reconciler.svc"})
	require.NoError(t, err)

	pair, err := tls.X509KeyPair(cert, key)
	require.NoError(t, err)

	parsedCert, err := x509.ParseCertificate(pair.Certificate[0])
	require.NoError(t, err)
	require.Equal(t, "trino-reconciler", parsedCert.Subject.CommonName)
	require.Equal(t, []string{"trino-reconciler.svc"}, parsedCert.DNSNames)
}

func TestVerifyKeyPair(t *testing.T) {
	dir := t.TempDir()
	crtFile := filepath.Join(dir, "tls.crt")
	keyFile := filepath.Join(dir, "tls.key")

	t.Run("No TLS configured", func(t *testing.T) {
		require.NoError(t, VerifyKeyPair("", ""))
	})

	t.Run("Valid key pair", func(t *testing.T) {
		require.NoError(t, WriteCertificate("localhost", []string{"localhost"}, crtFile, keyFile))
		require.NoError(t, VerifyKeyPair(crtFile, keyFile))
	})

	t.Run("Missing key", func(t *testing.T) {
		require.Error(t, VerifyKeyPair(crtFile, filepath.Join(dir, "missing.key")))
	})

	t.Run("Mismatching key", func(t *testing.T) {
		otherKey, _, err := GenerateCertificate("other", nil)
		require.NoError(t, err)
		otherKeyFile := filepath.Join(dir, "other.key")
		require.NoError(t, os.WriteFile(otherKeyFile, otherKey, 0600))

		require.Error(t, VerifyKeyPair(crtFile, otherKeyFile))
	})
}
