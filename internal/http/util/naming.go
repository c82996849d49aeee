package util

import (
	"crypto/rand"

	"github.com/yuwei031/SubForge/internal/app/model"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

const (
	// TokenLength keeps share tokens short enough for a URL while leaving
	// 64^10 possibilities against guessing.
	TokenLength = 10
	// ObjectKeyLength matches the entropy of a full random object id.
	ObjectKeyLength = 21
)

// RandomID returns a URL-safe random string of length n.
func RandomID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; nothing sensible
		// to return.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)&63]
	}
	return string(buf)
}

// NewShareToken mints the secret that authorizes the public download link.
func NewShareToken() string {
	return RandomID(TokenLength)
}

// NewObjectKey mints a globally unique storage name with the extension
// implied by the conversion target.
func NewObjectKey(target string) string {
	return RandomID(ObjectKeyLength) + "." + model.FileExt(target)
}
