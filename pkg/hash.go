package dupsig

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	TypeID  uint16
	Size    int
	NewFunc func() hash.Hash
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "sha1":
		return &HashAlgorithm{
			Name:    "sha1",
			TypeID:  HashTypeSHA1,
			Size:    HashSizeSHA1,
			NewFunc: func() hash.Hash { return sha1.New() },
		}, nil
	case "sha256":
		return &HashAlgorithm{
			Name:    "sha256",
			TypeID:  HashTypeSHA256,
			Size:    HashSizeSHA256,
			NewFunc: func() hash.Hash { return sha256.New() },
		}, nil
	case "sha512":
		return &HashAlgorithm{
			Name:    "sha512",
			TypeID:  HashTypeSHA512,
			Size:    HashSizeSHA512,
			NewFunc: func() hash.Hash { return sha512.New() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// HashFileInterruptible calculates the hash of a file by reading fixed-size
// chunks, so memory use is independent of file size. The shutdown channel is
// checked between reads for graceful interruption. Chunk size never affects
// the resulting digest.
func HashFileInterruptible(filePath string, algorithm *HashAlgorithm, bufferSize int, shutdownChan <-chan struct{}) ([]byte, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultHashBufferSize
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hasher := algorithm.NewFunc()
	buffer := make([]byte, bufferSize)

	for {
		select {
		case <-shutdownChan:
			return nil, ErrInterrupted
		default:
		}

		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read from file %s: %w", filePath, err)
		}
	}

	return hasher.Sum(nil), nil
}

// HashFileToHexString calculates the streaming hash of a file and returns it
// as a hex string in the requested case ("lower" or "upper").
func HashFileToHexString(filePath string, algorithm *HashAlgorithm, bufferSize int, hexCase string, shutdownChan <-chan struct{}) (string, error) {
	hashBytes, err := HashFileInterruptible(filePath, algorithm, bufferSize, shutdownChan)
	if err != nil {
		return "", err
	}
	digest := hex.EncodeToString(hashBytes)
	if strings.ToLower(hexCase) == "upper" {
		digest = strings.ToUpper(digest)
	}
	return digest, nil
}
