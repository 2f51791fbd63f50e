package postgresadapter

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

const (
	aliasAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	aliasLength   = 12
)

// RandomAliasGenerator produces fixed-length aliases over lowercase letters
// and digits, uniform per position. 36^12 values make collisions rare but
// possible; the submission path's retry loop owns uniqueness.
type RandomAliasGenerator struct{}

func (RandomAliasGenerator) NewAlias() string {
	out := make([]byte, aliasLength)
	for i := range out {
		out[i] = aliasAlphabet[rand.IntN(len(aliasAlphabet))]
	}
	return string(out)
}
