// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto implements the primitive operations every other component
// is built on: constant-time comparison, an entropy-checked CSPRNG, the
// SHA3-256/HKDF hash surface, a deterministic canonical hash for the
// sparse Merkle tree, value commitments, scoped zeroization, and a bounded
// proof-of-work challenge. Every operation fails fast with a typed error
// from xerrors; there is no catch-all fallback.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/luxfi/zkcred/xerrors"
)

// MinEntropyBitsPerByte is the Shannon-entropy floor secure_random enforces
// per §4.1.
const MinEntropyBitsPerByte = 7.5

// minEntropySampleSize is the smallest buffer the Shannon-entropy estimate
// is meaningful for. A naive per-sample estimate over n bytes is bounded
// above by log2(n) and is biased low by roughly 255/(2n·ln 2) bits for
// uniform bytes, so genuine CSPRNG output of 256 bytes averages about 7.2
// bits/byte and is always under the floor; from 768 bytes up it averages
// about 7.7 and clears it. Most call sites ask for key-sized (4-32 byte)
// buffers, so the floor only guards the larger samples it can actually
// catch degenerate output in.
const minEntropySampleSize = 768

// ConstantTimeEqual compares a and b without allowing the running time to
// depend on where they first differ. Unequal lengths do not short-circuit:
// both buffers are padded to the longer length and compared in full, and
// the result is forced false.
func ConstantTimeEqual(a, b []byte) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	pa := make([]byte, n)
	pb := make([]byte, n)
	copy(pa, a)
	copy(pb, b)

	var diff byte
	for i := 0; i < n; i++ {
		diff |= pa[i] ^ pb[i]
	}
	if len(a) != len(b) {
		diff |= 1
	}
	return diff == 0
}

// SecureRandom returns n cryptographically random bytes, 1 <= n <= 1024.
// Samples of at least minEntropySampleSize bytes are rejected if their
// measured Shannon entropy falls below MinEntropyBitsPerByte; smaller
// samples skip the check, since a per-sample estimate over that few bytes
// falls below a 7.5 bits/byte floor even for genuine random output.
func SecureRandom(n int) ([]byte, error) {
	if n < 1 || n > 1024 {
		return nil, &xerrors.ValidationError{Reason: "secure_random: n must be in [1,1024]"}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, &xerrors.CryptographicError{Reason: "secure_random: " + err.Error()}
	}
	if n >= minEntropySampleSize && shannonEntropyPerByte(buf) < MinEntropyBitsPerByte {
		return nil, &xerrors.CryptographicError{Reason: "secure_random: entropy below threshold"}
	}
	return buf, nil
}

func shannonEntropyPerByte(buf []byte) float64 {
	if len(buf) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range buf {
		counts[b]++
	}
	total := float64(len(buf))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// Hash returns the lowercase 64-hex SHA3-256 digest of x.
func Hash(x []byte) string {
	sum := sha3.Sum256(x)
	return hex.EncodeToString(sum[:])
}

// HashBytes returns the raw 32-byte SHA3-256 digest of x.
func HashBytes(x []byte) [32]byte {
	return sha3.Sum256(x)
}

// HKDF runs RFC 5869 extract-then-expand with SHA-256, requiring a master
// secret of at least 32 bytes and an output length no more than 255*32
// bytes (the RFC 5869 expand limit for SHA-256).
func HKDF(master, salt, info []byte, length int) ([]byte, error) {
	if len(master) < 32 {
		return nil, &xerrors.ValidationError{Reason: "hkdf: master must be >= 32 bytes"}
	}
	if length <= 0 || length > 255*32 {
		return nil, &xerrors.ValidationError{Reason: "hkdf: length out of range"}
	}
	r := hkdf.New(sha256.New, master, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, &xerrors.CryptographicError{Reason: "hkdf: " + err.Error()}
	}
	return out, nil
}

// DeterministicHashArg is one argument to DeterministicHash: either a
// string (encoded as raw UTF-8) or an unsigned integer (encoded as
// 16-hex-char big-endian, i.e. 8 bytes).
type DeterministicHashArg struct {
	Str    string
	UInt   uint64
	IsUInt bool
}

// Str wraps a string argument for DeterministicHash.
func Str(s string) DeterministicHashArg { return DeterministicHashArg{Str: s} }

// UInt wraps an integer argument for DeterministicHash, canonically
// encoded as 16 hex characters (8 bytes, big-endian) per §4.1.
func UInt(v uint64) DeterministicHashArg { return DeterministicHashArg{UInt: v, IsUInt: true} }

// DeterministicHash concatenates the canonical encoding of each argument
// and returns the 64-hex SHA3-256 digest. Used by the sparse Merkle tree
// to combine node hashes and by other components needing a stable,
// language-independent hash over mixed string/integer arguments.
func DeterministicHash(args ...DeterministicHashArg) string {
	var buf strings.Builder
	for _, a := range args {
		if a.IsUInt {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], a.UInt)
			buf.WriteString(hex.EncodeToString(b[:]))
		} else {
			buf.WriteString(a.Str)
		}
	}
	return Hash([]byte(buf.String()))
}

// Commitment is a Pedersen-style hash commitment h = sha3(v || blinding).
type Commitment struct {
	Hash     string
	Blinding []byte
}

// Commit builds a commitment to v. If blinding is nil, a fresh 32-byte
// CSPRNG blinding factor is generated.
func Commit(v []byte, blinding []byte) (*Commitment, error) {
	if blinding == nil {
		b, err := SecureRandom(32)
		if err != nil {
			return nil, err
		}
		blinding = b
	}
	h := Hash(append(append([]byte{}, v...), blinding...))
	return &Commitment{Hash: h, Blinding: blinding}, nil
}

// VerifyCommitment checks that commitment h was produced from v and
// blinding, comparing in constant time.
func VerifyCommitment(v, blinding []byte, h string) bool {
	expected := Hash(append(append([]byte{}, v...), blinding...))
	return ConstantTimeEqual([]byte(expected), []byte(h))
}

// SecureZero overwrites buf with fresh random bytes and then zeroes it.
// The random pass defeats naive dead-store elimination of a final memset;
// callers must not retain slices aliasing buf afterward.
func SecureZero(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_, _ = io.ReadFull(rand.Reader, buf)
	for i := range buf {
		buf[i] = 0
	}
}

// ProofOfWork searches for a 16-hex nonce such that
// Hash(challenge || nonce) has `difficulty` leading hex zeros, bounded to
// 10^7 iterations.
func ProofOfWork(challenge []byte, difficulty int) (nonce string, err error) {
	if difficulty < 1 || difficulty > 32 {
		return "", &xerrors.ValidationError{Reason: "proof_of_work: difficulty must be in [1,32]"}
	}
	const maxIterations = 10_000_000
	prefix := strings.Repeat("0", difficulty)
	var n uint64
	for n = 0; n < maxIterations; n++ {
		var nb [8]byte
		binary.BigEndian.PutUint64(nb[:], n)
		candidate := hex.EncodeToString(nb[:])
		h := Hash(append(append([]byte{}, challenge...), []byte(candidate)...))
		if strings.HasPrefix(h, prefix) {
			return candidate, nil
		}
	}
	return "", &xerrors.CryptographicError{Reason: "proof_of_work: exceeded iteration bound"}
}
