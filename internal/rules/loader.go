package rules

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a rules file strictly: unknown keys and invalid values fail.
// Sections missing from the file keep their defaults.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadFile(path string) (*Rules, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	r, err := Decode(data, true)
	if err != nil {
		return nil, data, err
	}

	if err := Validate(r); err != nil {
		return nil, data, err
	}

	return r, data, nil
}

// Decode parses YAML on top of Defaults.
// An empty document yields the defaults.
func Decode(data []byte, strict bool) (*Rules, error) {
	r := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(strict)
	if err := dec.Decode(r); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return r, nil
}

// Hash generates SHA256 hash from Rules (canonical JSON)
// 주의: JSON map 키는 정렬되어 해시 재현성 보장
func Hash(r *Rules) (string, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Marshal renders rules as YAML
func Marshal(r *Rules) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
