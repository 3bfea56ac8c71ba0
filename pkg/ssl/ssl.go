package ssl

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"

	file "github.com/kyma-incubator/trino-reconciler/pkg/files"
	"github.com/pkg/errors"
)

const pkBits = 2048

func VerifyKeyPair(sslCrtFile, sslKeyFile string) error {
	if sslCrtFile == "" && sslKeyFile == "" {
		return nil
	}
	if file.Exists(sslCrtFile) && file.Exists(sslKeyFile) {
		crt, err := os.ReadFile(sslCrtFile)
		if err != nil {
			return err
		}
		key, err := os.ReadFile(sslKeyFile)
		if err != nil {
			return err
		}
		_, err = tls.X509KeyPair(crt, key)
		if err != nil {
			return errors.Wrap(err,
				fmt.Sprintf("Provided TLS certificate '%s' and key '%s' is invalid", sslCrtFile, sslKeyFile))
		}
		return nil
	}
	return fmt.Errorf("SSL certificate cannot be verified: either key or certificate file is missing")
}

// GenerateCertificate creates a self-signed server certificate valid for one year.
// Key and certificate are returned PEM encoded.
func GenerateCertificate(commonName string, dnsNames []string) (key []byte, cert []byte, err error) {
	pk, err := rsa.GenerateKey(rand.Reader, pkBits)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	certTpl := x509.Certificate{
		SerialNumber:          big.NewInt(now.UnixNano()),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now,
		NotAfter:              now.AddDate(1, 0, 0),
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certificateBytes, err := x509.CreateCertificate(rand.Reader, &certTpl, &certTpl, &pk.PublicKey, pk)
	if err != nil {
		return nil, nil, err
	}

	key = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	})
	cert = pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certificateBytes,
	})
	return key, cert, nil
}

// WriteCertificate generates a self-signed certificate and stores it in the given files.
func WriteCertificate(commonName string, dnsNames []string, sslCrtFile, sslKeyFile string) error {
	key, cert, err := GenerateCertificate(commonName, dnsNames)
	if err != nil {
		return errors.Wrap(err, "failed to generate self-signed certificate")
	}
	if err := os.WriteFile(sslKeyFile, key, 0600); err != nil {
		return err
	}
	return os.WriteFile(sslCrtFile, cert, 0600)
}
