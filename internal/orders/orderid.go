package orders

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IDGenerator produces the universal order identifier used across the
// database, the fulfillment partner and the storefront, in the form
// RR-YYYYMMDD-CCCC-SSSS. The counter starts at 1000 and resets at local
// midnight; the suffix is 4 random uppercase base-36 characters.
type IDGenerator struct {
	mu      sync.Mutex
	counter int
	day     string
	now     func() time.Time
	rnd     *rand.Rand
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		counter: 1000,
		now:     time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a fresh order id. The same value is used for both orderId
// and orderNumber.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	day := now.Format("20060102")
	if day != g.day {
		g.day = day
		g.counter = 1000
	}

	counter := g.counter
	g.counter++

	var suffix strings.Builder
	for i := 0; i < 4; i++ {
		suffix.WriteByte(base36Upper[g.rnd.Intn(len(base36Upper))])
	}

	return fmt.Sprintf("RR-%s-%04d-%s", day, counter, suffix.String())
}
