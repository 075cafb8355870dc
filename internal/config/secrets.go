package config

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultSecretsPath is where a Kubernetes deployment mounts the credential
// secret; HITEMP_SECRETS_PATH overrides it.
const defaultSecretsPath = "/var/run/secrets/hitemp"

// tryLoadFromSecrets reads credentials from mounted secret files. A missing
// directory or file yields empty strings, not an error, so environment
// variables remain a viable fallback.
func tryLoadFromSecrets() (username, password string, err error) {
	dir := os.Getenv("HITEMP_SECRETS_PATH")
	if dir == "" {
		dir = defaultSecretsPath
	}

	username, err = readSecretFile(dir, "username")
	if err != nil {
		return "", "", err
	}
	password, err = readSecretFile(dir, "password")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// readSecretFile returns the trimmed contents of one secret file, or empty
// when the file is absent.
func readSecretFile(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
