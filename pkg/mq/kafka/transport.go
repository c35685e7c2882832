package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// newDialer 创建 kafka.Dialer（健康检查用）
func newDialer(cfg *Config) (*kafka.Dialer, error) {
	tlsConfig, mechanism, err := securityOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &kafka.Dialer{TLS: tlsConfig, SASLMechanism: mechanism}, nil
}

// newTransport 创建 kafka.Transport（Writer 用），未启用 TLS/SASL 时返回 nil 使用默认传输
func newTransport(cfg *Config) (*kafka.Transport, error) {
	tlsConfig, mechanism, err := securityOptions(cfg)
	if err != nil {
		return nil, err
	}
	if tlsConfig == nil && mechanism == nil {
		return nil, nil
	}
	return &kafka.Transport{TLS: tlsConfig, SASL: mechanism}, nil
}

func securityOptions(cfg *Config) (*tls.Config, sasl.Mechanism, error) {
	var (
		tlsConfig *tls.Config
		mechanism sasl.Mechanism
		err       error
	)

	if cfg.TLS != nil && cfg.TLS.Enable {
		if tlsConfig, err = newTLSConfig(cfg.TLS); err != nil {
			return nil, nil, err
		}
	}
	if cfg.SASL != nil && cfg.SASL.Username != "" {
		if mechanism, err = newSASLMechanism(cfg.SASL); err != nil {
			return nil, nil, err
		}
	}
	return tlsConfig, mechanism, nil
}

func newTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidConfig, cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func newSASLMechanism(cfg *SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "SCRAM-SHA-256", "scram-sha-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512", "scram-sha-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	}
}
