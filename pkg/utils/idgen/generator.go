// Package idgen provides ID generation utilities for PushRelay
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// Generator defines the interface for ID generation
type Generator interface {
	// Generate creates a new unique ID
	Generate() string
	// GenerateWithPrefix creates a new unique ID with the given prefix
	GenerateWithPrefix(prefix string) string
}

// SimpleGenerator implements a simple ID generator using timestamp and random bytes
type SimpleGenerator struct {
	counter uint64
}

// NewSimpleGenerator creates a new simple ID generator
func NewSimpleGenerator() *SimpleGenerator {
	return &SimpleGenerator{}
}

// Generate creates a new unique ID in format: timestamp_counter_random
func (g *SimpleGenerator) Generate() string {
	return g.GenerateWithPrefix("")
}

// GenerateWithPrefix creates a new unique ID with the given prefix
func (g *SimpleGenerator) GenerateWithPrefix(prefix string) string {
	timestamp := time.Now().UnixNano()
	counter := atomic.AddUint64(&g.counter, 1)

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		// Fallback to counter-based bytes if crypto/rand fails
		randomBytes = []byte{
			byte(counter >> 24),
			byte(counter >> 16),
			byte(counter >> 8),
			byte(counter),
		}
	}

	randomHex := hex.EncodeToString(randomBytes)

	if prefix != "" {
		return fmt.Sprintf("%s_%d_%d_%s", prefix, timestamp, counter, randomHex)
	}
	return fmt.Sprintf("%d_%d_%s", timestamp, counter, randomHex)
}

var defaultGenerator = NewSimpleGenerator()

// GenerateMessageID generates a message ID using the default generator
func GenerateMessageID() string {
	return defaultGenerator.GenerateWithPrefix("msg")
}
