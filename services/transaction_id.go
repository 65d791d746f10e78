package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const TransactionIDPrefix = "JPSTORE-"

var idSuffixRange = big.NewInt(10000)

// NewTransactionID returns "JPSTORE-" followed by the millisecond timestamp
// and four random digits. Two checkouts in the same millisecond collide with
// probability 1/10000; the unique index on the column catches the rest.
func NewTransactionID(now time.Time) string {
	n, err := rand.Int(rand.Reader, idSuffixRange)
	if err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the clock
		n = big.NewInt(int64(now.Nanosecond() % 10000))
	}
	return fmt.Sprintf("%s%d%04d", TransactionIDPrefix, now.UnixMilli(), n.Int64())
}
