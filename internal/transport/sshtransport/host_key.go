package sshtransport

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AnishMulay/sandtrap/internal/log_service"
	"golang.org/x/crypto/ssh"
)

const hostKeyBits = 2048

// LoadOrGenerateHostKey reads any private key format ssh understands from
// path. A new RSA key is generated and stored only when the file does not
// exist; an existing file is never rewritten.
func LoadOrGenerateHostKey(path string, ls log_service.LogService) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			ls.Error(log_service.LogEvent{
				Message:  "Failed to parse host key",
				Metadata: map[string]any{"path": path, "error": err.Error()},
			})
			return nil, fmt.Errorf("%w: %s: %v", ErrHostKey, path, err)
		}
		return signer, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %v", ErrHostKey, err)
	}

	key, err := rsa.GenerateKey(rand.Reader, hostKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostKey, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostKey, err)
	}
	data = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostKey, err)
	}

	ls.Info(log_service.LogEvent{
		Message:  "Generated new host key",
		Metadata: map[string]any{"path": path},
	})
	return ssh.NewSignerFromKey(key)
}
