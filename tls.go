package mongokit

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/youmark/pkcs8"
)

// buildTLSConfig assembles a *tls.Config from the TLS fields. It is called
// only when TLS is enabled explicitly or implied by the connection target;
// file reads happen here, before any network attempt, so unreadable material
// fails as a configuration error.
func (c Config) buildTLSConfig() (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.TLSInsecure,
	}

	if c.TLSCAFile != "" {
		pemData, err := os.ReadFile(c.TLSCAFile)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("%w: no CA certificates found in %s", ErrInvalidConfig, c.TLSCAFile)
		}
		tlsCfg.RootCAs = pool
	}

	if c.TLSCertFile != "" {
		keyFile := c.TLSKeyFile
		if keyFile == "" {
			// Combined PEM file carrying both certificate and key.
			keyFile = c.TLSCertFile
		}
		cert, err := loadClientCertificate(c.TLSCertFile, keyFile, c.TLSKeyPassword)
		if err != nil {
			return nil, err
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	if len(c.TLSCiphers) > 0 {
		suites, err := resolveCipherSuites(c.TLSCiphers)
		if err != nil {
			return nil, err
		}
		tlsCfg.CipherSuites = suites
	}

	if c.TLSCRLFile != "" {
		crl, err := loadRevocationList(c.TLSCRLFile)
		if err != nil {
			return nil, err
		}
		tlsCfg.VerifyPeerCertificate = rejectRevoked(crl)
	}

	return tlsCfg, nil
}

// loadClientCertificate loads an X.509 key pair from PEM files. When a key
// password is configured, the key must be an encrypted PKCS#8 block and is
// decrypted before pairing; otherwise the files are loaded as-is.
func loadClientCertificate(certFile, keyFile, password string) (tls.Certificate, error) {
	if password == "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return tls.Certificate{}, errors.Join(ErrInvalidConfig, err)
		}
		return cert, nil
	}

	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, errors.Join(ErrInvalidConfig, err)
	}
	chain := parseCertificateChain(certPEM)
	if len(chain) == 0 {
		return tls.Certificate{}, fmt.Errorf("%w: no certificates found in %s", ErrInvalidConfig, certFile)
	}

	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, errors.Join(ErrInvalidConfig, err)
	}
	block := findPrivateKeyBlock(keyPEM)
	if block == nil {
		return tls.Certificate{}, fmt.Errorf("%w: no private key found in %s", ErrInvalidConfig, keyFile)
	}

	key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(password))
	if err != nil {
		return tls.Certificate{}, errors.Join(ErrInvalidConfig, err)
	}

	return tls.Certificate{Certificate: chain, PrivateKey: key}, nil
}

// parseCertificateChain collects the DER bytes of every CERTIFICATE block in
// the PEM data, preserving order.
func parseCertificateChain(pemData []byte) [][]byte {
	var chain [][]byte
	for rest := pemData; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return chain
		}
		if block.Type == "CERTIFICATE" {
			chain = append(chain, block.Bytes)
		}
	}
}

// findPrivateKeyBlock returns the first PEM block holding a private key, so
// combined certificate+key files work in either order.
func findPrivateKeyBlock(pemData []byte) *pem.Block {
	for rest := pemData; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil
		}
		if strings.Contains(block.Type, "PRIVATE KEY") {
			return block
		}
	}
}

// resolveCipherSuites maps standard cipher suite names to their IDs. Suites
// the Go runtime marks insecure are still resolvable since the server side of
// a legacy deployment may require them.
func resolveCipherSuites(names []string) ([]uint16, error) {
	byName := make(map[string]uint16)
	for _, s := range tls.CipherSuites() {
		byName[s.Name] = s.ID
	}
	for _, s := range tls.InsecureCipherSuites() {
		byName[s.Name] = s.ID
	}

	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown cipher suite %q", ErrInvalidConfig, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// loadRevocationList reads a CRL file in PEM or raw DER form.
func loadRevocationList(path string) (*x509.RevocationList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	crl, err := x509.ParseRevocationList(data)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return crl, nil
}

// rejectRevoked returns a handshake verifier that fails when the peer
// presents any certificate listed in the revocation list.
func rejectRevoked(crl *x509.RevocationList) func([][]byte, [][]*x509.Certificate) error {
	revoked := make(map[string]struct{}, len(crl.RevokedCertificateEntries))
	for _, entry := range crl.RevokedCertificateEntries {
		revoked[entry.SerialNumber.String()] = struct{}{}
	}
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			if _, ok := revoked[cert.SerialNumber.String()]; ok {
				return fmt.Errorf("tls: peer certificate with serial %s is revoked", cert.SerialNumber)
			}
		}
		return nil
	}
}
