// Package facts supplies certificate and domain-registration facts to the
// evidence providers. Each source performs one bounded lookup and fails
// independently; the providers treat failures as skipped checks.
package facts

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// CertProber observes the TLS certificate a host actually presents.
type CertProber struct {
	dialer *net.Dialer
	port   string
}

// NewCertProber creates a prober. The timeout bounds the TCP dial; the
// caller's context bounds the whole probe including the handshake.
func NewCertProber(timeout time.Duration) *CertProber {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &CertProber{
		dialer: &net.Dialer{Timeout: timeout},
		port:   "443",
	}
}

// CertificateFacts connects to host:443, completes a TLS handshake without
// verification, then derives validity facts from the presented chain.
func (p *CertProber) CertificateFacts(ctx context.Context, host string) (entity.CertificateFacts, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, p.port))
	if err != nil {
		return entity.CertificateFacts{}, fmt.Errorf("dial %s: %w", host, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	// Verification is done by hand afterwards so an invalid certificate
	// still produces facts instead of a handshake error.
	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		// Handshake failure with no certificate at all.
		return entity.CertificateFacts{Found: false}, nil
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return entity.CertificateFacts{Found: false}, nil
	}

	leaf := state.PeerCertificates[0]
	now := time.Now()
	facts := entity.CertificateFacts{
		Found:   true,
		Expired: now.Before(leaf.NotBefore) || now.After(leaf.NotAfter),
	}
	if err := leaf.VerifyHostname(host); err != nil {
		facts.HostnameMismatch = true
	}
	facts.SelfSigned = isSelfSigned(leaf)

	intermediates := x509.NewCertPool()
	for _, c := range state.PeerCertificates[1:] {
		intermediates.AddCert(c)
	}
	_, verifyErr := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	facts.Valid = verifyErr == nil

	return facts, nil
}

func isSelfSigned(cert *x509.Certificate) bool {
	if cert.Subject.String() != cert.Issuer.String() {
		return false
	}
	return cert.CheckSignatureFrom(cert) == nil
}
