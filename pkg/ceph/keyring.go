package ceph

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

// LoadKeyring reads a ceph.keyring-style file at path and returns the
// AES-128 secret for entity, e.g. {Type: EntityTypeClient, Name:
// "admin"} for a "[client.admin]" section.
func LoadKeyring(path string, entity wireaddr.EntityName) (cryptoutil.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cryptoutil.Key{}, fmt.Errorf("ceph: reading keyring %s: %w", path, err)
	}
	return ParseKeyring(data, entity)
}

// ParseKeyring extracts entity's "key" value out of data, a Ceph keyring
// file: one or more "[type.name]" sections, each holding "key = value"
// (and other, ignored) lines indented beneath it. The value is the
// entity's AES-128 secret, base64-encoded.
//
// Real keyrings are produced by ceph-authtool and carry no nested
// structure or escaping beyond this — a hand-rolled scanner matches the
// format exactly without reaching for a general-purpose INI library.
func ParseKeyring(data []byte, entity wireaddr.EntityName) (cryptoutil.Key, error) {
	wantSection := "[" + entity.String() + "]"

	var inSection bool
	var keyLine string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inSection = line == wantSection
			continue
		}
		if !inSection {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(name) == "key" {
			keyLine = strings.TrimSpace(value)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return cryptoutil.Key{}, fmt.Errorf("ceph: scanning keyring: %w", err)
	}
	if keyLine == "" {
		return cryptoutil.Key{}, fmt.Errorf("ceph: no key for %s in keyring", entity.String())
	}

	secret, err := base64.StdEncoding.DecodeString(keyLine)
	if err != nil {
		return cryptoutil.Key{}, fmt.Errorf("ceph: decoding key for %s: %w", entity.String(), err)
	}
	if len(secret) != 16 {
		return cryptoutil.Key{}, fmt.Errorf("ceph: key for %s is %d bytes, want 16 (AES-128)", entity.String(), len(secret))
	}

	var fixed [16]byte
	copy(fixed[:], secret)
	return cryptoutil.NewKey(cryptoutil.Timestamp{}, fixed), nil
}
